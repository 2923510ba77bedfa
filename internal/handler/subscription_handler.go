package handler

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SubscriptionHandler struct {
	uc        *usecase.SubscriptionUsecase
	merchants repository.MerchantRepository
}

func NewSubscriptionHandler(uc *usecase.SubscriptionUsecase, merchants repository.MerchantRepository) *SubscriptionHandler {
	return &SubscriptionHandler{uc: uc, merchants: merchants}
}

func (h *SubscriptionHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/merchant")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/subscriptions", h.list)
	g.PATCH("/subscriptions/:id/frequency", h.updateFrequency)
	g.PATCH("/subscriptions/:id/status", h.updateStatus)
	g.PUT("/subscriptions/:id/items", h.updateItems)
}

func (h *SubscriptionHandler) list(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	out, err := h.uc.ListMerchantSubscriptions(c.Request().Context(), merchantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type SubscriptionFrequencyRequest struct {
	Frequency string `json:"frequency"`
}

func (h *SubscriptionHandler) updateFrequency(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	id, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req SubscriptionFrequencyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.SetFrequency(c.Request().Context(), merchantID, id, model.SubscriptionFrequency(req.Frequency)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"frequency": req.Frequency})
}

type SubscriptionStatusRequest struct {
	Status string `json:"status"`
}

func (h *SubscriptionHandler) updateStatus(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	id, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req SubscriptionStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.SetStatus(c.Request().Context(), merchantID, id, model.SubscriptionStatus(req.Status)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

type SubscriptionItemsRequest struct {
	Items []usecase.CheckoutItemInput `json:"items"`
}

func (h *SubscriptionHandler) updateItems(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	id, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req SubscriptionItemsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.UpdateItems(c.Request().Context(), merchantID, id, req.Items); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "items updated"})
}
