package handler

import (
	"net/http"
	"strconv"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WithdrawalHandler struct {
	uc        *usecase.WithdrawalUsecase
	ledger    *usecase.LedgerUsecase
	merchants repository.MerchantRepository
}

func NewWithdrawalHandler(uc *usecase.WithdrawalUsecase, ledger *usecase.LedgerUsecase, merchants repository.MerchantRepository) *WithdrawalHandler {
	return &WithdrawalHandler{uc: uc, ledger: ledger, merchants: merchants}
}

func (h *WithdrawalHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/merchant")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/balance", h.balance)
	g.GET("/withdrawals", h.list)
	g.POST("/withdrawals", h.request)
	g.PATCH("/settings/auto-withdrawal", h.updateAutoWithdrawal)
}

type BalanceResponse struct {
	Balance              int64 `json:"balance"`
	ComputedBalance      int64 `json:"computed_balance"`
	Consistent           bool  `json:"consistent"`
	HasPendingWithdrawal bool  `json:"has_pending_withdrawal"`
}

func (h *WithdrawalHandler) balance(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	rec, err := h.ledger.Reconcile(ctx, merchantID)
	if err != nil {
		return writeError(c, err)
	}
	pending, err := h.ledger.HasPendingWithdrawal(ctx, merchantID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		Balance:              rec.StoredBalance,
		ComputedBalance:      rec.ComputedBalance,
		Consistent:           rec.Consistent,
		HasPendingWithdrawal: pending,
	})
}

func withdrawalListFilter(c echo.Context) (repository.WithdrawalListFilter, error) {
	f := repository.WithdrawalListFilter{Page: 1, Limit: 50}
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return f, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		f.Page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return f, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		f.Limit = l
	}
	f.Status = c.QueryParam("status")
	return f, nil
}

func (h *WithdrawalHandler) list(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	f, err := withdrawalListFilter(c)
	if err != nil {
		return err
	}

	out, err := h.uc.ListMyWithdrawals(c.Request().Context(), merchantID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type WithdrawalRequest struct {
	Amount int64 `json:"amount"`
}

func (h *WithdrawalHandler) request(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	var req WithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.RequestWithdrawal(c.Request().Context(), merchantID, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type AutoWithdrawalRequest struct {
	Interval string `json:"interval"`
}

func (h *WithdrawalHandler) updateAutoWithdrawal(c echo.Context) error {
	_, merchantID, err := resolveMerchantID(c, h.merchants)
	if err != nil {
		return err
	}

	var req AutoWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.SetAutoWithdrawalInterval(c.Request().Context(), merchantID, model.AutoWithdrawalInterval(req.Interval)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"interval": req.Interval})
}
