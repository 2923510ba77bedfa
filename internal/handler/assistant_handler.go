package handler

import (
	"net/http"
	"strings"

	"marketplace/internal/config"
	"marketplace/internal/llm"

	"github.com/labstack/echo/v4"
)

// 買い物リスト生成とチャットのLLMプロキシAPI
type AssistantHandler struct {
	client *llm.Client
	cfg    config.Config
}

func NewAssistantHandler(client *llm.Client, cfg config.Config) *AssistantHandler {
	return &AssistantHandler{client: client, cfg: cfg}
}

func (h *AssistantHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/generate-list", h.generateList)
	e.POST("/api/chat", h.chat)
	e.GET("/api/payment-config", h.paymentConfig)
}

type GenerateListRequest struct {
	Prompt string `json:"prompt"`
}

type GenerateListResponse struct {
	Items []llm.GeneratedItem `json:"items"`
	Raw   string              `json:"raw"`
}

func (h *AssistantHandler) generateList(c echo.Context) error {
	var req GenerateListRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "prompt required"})
	}

	items, raw, err := h.client.GenerateList(c.Request().Context(), req.Prompt)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "llm upstream error"})
	}

	return c.JSON(http.StatusOK, GenerateListResponse{Items: items, Raw: raw})
}

type ChatRequest struct {
	Message          string `json:"message"`
	OrderData        string `json:"orderData"`
	SubscriptionData string `json:"subscriptionData"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

func (h *AssistantHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message required"})
	}

	reply, err := h.client.Chat(c.Request().Context(), req.Message, req.OrderData, req.SubscriptionData)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "llm upstream error"})
	}

	return c.JSON(http.StatusOK, ChatResponse{Response: reply})
}

// 決済ウィジェット用の公開キーを返す。秘密情報は含めない。
func (h *AssistantHandler) paymentConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"public_key": h.cfg.PaymentPublicKey,
	})
}
