package server

import (
	"net/http"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Handlersはルート登録に必要なハンドラ一式。
type Handlers struct {
	Auth            *handler.AuthHandler
	Order           *handler.OrderHandler
	Subscription    *handler.SubscriptionHandler
	Withdrawal      *handler.WithdrawalHandler
	AdminWithdrawal *handler.AdminWithdrawalHandler
	Dashboard       *handler.DashboardHandler
	Assistant       *handler.AssistantHandler
}

// Newはechoを組み立ててルートを登録する。
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e)
	h.Assistant.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg)
	h.Subscription.RegisterRoutes(e, cfg)
	h.Withdrawal.RegisterRoutes(e, cfg)
	h.Dashboard.RegisterRoutes(e, cfg)
	h.AdminWithdrawal.RegisterRoutes(e, cfg)

	return e
}

// Startはサーバーを起動する。
func Start(e *echo.Echo, addr string) error {
	s := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return e.StartServer(s)
}
