package handler

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminWithdrawalHandler struct {
	uc *usecase.WithdrawalUsecase
}

func NewAdminWithdrawalHandler(uc *usecase.WithdrawalUsecase) *AdminWithdrawalHandler {
	return &AdminWithdrawalHandler{uc: uc}
}

func (h *AdminWithdrawalHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("/withdrawals", h.list)
	g.PATCH("/withdrawals/:id/status", h.updateStatus)
}

func (h *AdminWithdrawalHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	f, err := withdrawalListFilter(c)
	if err != nil {
		return err
	}

	out, err := h.uc.ListAdminWithdrawals(c.Request().Context(), userID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type AdminWithdrawalStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminWithdrawalHandler) updateStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, idOK := parseIDParam(c)
	if !idOK {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminWithdrawalStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err := h.uc.SetWithdrawalStatus(c.Request().Context(), userID, id, usecase.SetWithdrawalStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}
