package handler

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	uc        *usecase.DashboardUsecase
	merchants repository.MerchantRepository
}

func NewDashboardHandler(uc *usecase.DashboardUsecase, merchants repository.MerchantRepository) *DashboardHandler {
	return &DashboardHandler{uc: uc, merchants: merchants}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/merchant")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/dashboard", h.dashboard)
}

func (h *DashboardHandler) dashboard(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	out, err := h.uc.GetDashboard(c.Request().Context(), merchantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
