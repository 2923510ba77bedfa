package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// AuthJWTが保存したuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	raw := c.Get(middleware.CtxUserIDKey)
	id, ok := raw.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// ログインユーザーの店舗アカウントを解決する
func resolveMerchantID(c echo.Context, merchants repository.MerchantRepository) (int64, int64, error) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return 0, 0, c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	m, err := merchants.FindByUserID(c.Request().Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, 0, c.JSON(http.StatusNotFound, ErrorResponse{Error: "merchant not found"})
	}
	if err != nil {
		return 0, 0, c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return userID, m.ID, nil
}

func parseIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type OrderHandler struct {
	uc        *usecase.OrderUsecase
	merchants repository.MerchantRepository
}

func NewOrderHandler(uc *usecase.OrderUsecase, merchants repository.MerchantRepository) *OrderHandler {
	return &OrderHandler{uc: uc, merchants: merchants}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//チェックアウトは決済成功コールバックから呼ばれる公開API
	e.POST("/checkout", h.checkout)

	g := e.Group("/merchant")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/orders", h.list)
	g.GET("/orders/:id", h.detail)
	g.PATCH("/orders/:id/status", h.updateStatus)
	g.POST("/orders/:id/delivered", h.markDelivered)
}

func (h *OrderHandler) checkout(c echo.Context) error {
	var req usecase.CheckoutInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Checkout(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	f := repository.OrderListFilter{Page: 1, Limit: 50}
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		f.Page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		f.Limit = l
	}
	f.Status = c.QueryParam("status")

	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		f.To = &t
	}

	out, err := h.uc.ListMerchantOrders(c.Request().Context(), merchantID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	id, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMerchantOrder(c.Request().Context(), merchantID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	userID, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	id, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.UpdateStatus(c.Request().Context(), userID, merchantID, id, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

func (h *OrderHandler) markDelivered(c echo.Context) error {
	userID, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	id, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.MarkDelivered(c.Request().Context(), userID, merchantID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "delivered"})
}
