package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

type WithdrawalUsecase struct {
	tx        repo.TransactionManager
	merchants repo.MerchantRepository
	idGen     IDGenerator
	clock     Clock
}

func NewWithdrawalUsecase(tx repo.TransactionManager, merchants repo.MerchantRepository, idGen IDGenerator, clock Clock) *WithdrawalUsecase {
	return &WithdrawalUsecase{tx: tx, merchants: merchants, idGen: idGen, clock: clock}
}

type WithdrawalOutput struct {
	ID         int64     `json:"id"`
	MerchantID int64     `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	Reference  string    `json:"reference"`
	Auto       bool      `json:"auto"`
	CreatedAt  time.Time `json:"created_at"`
}

// 出金申請。残高の条件付きUPDATEで減算してから申請行を作る。
// 同時リクエストが残高を超えて両方成功することはない。
func (u *WithdrawalUsecase) RequestWithdrawal(ctx context.Context, merchantID int64, amount int64) (WithdrawalOutput, error) {
	if merchantID <= 0 {
		return WithdrawalOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if amount <= 0 {
		return WithdrawalOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	var out WithdrawalOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		w, err := u.requestWithdrawalTx(ctx, r, merchantID, amount, false)
		if err != nil {
			return err
		}
		out = toWithdrawalOutput(w)
		return nil
	})

	if err != nil {
		return WithdrawalOutput{}, err
	}
	return out, nil
}

// トランザクション内の共通処理。手動・自動の両方から使う。
func (u *WithdrawalUsecase) requestWithdrawalTx(ctx context.Context, r repo.TxRepos, merchantID int64, amount int64, auto bool) (model.Withdrawal, error) {
	if _, err := r.Merchants().FindByID(ctx, merchantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Withdrawal{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Withdrawal{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//残高が足りるときだけ減算。足りなければ書き込みなしで失敗。
	ok, err := r.Merchants().DecreaseBalanceIfEnough(ctx, merchantID, amount)
	if err != nil {
		return model.Withdrawal{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return model.Withdrawal{}, NewHTTPError(http.StatusConflict, "insufficient balance")
	}

	now := u.clock.Now()
	w := model.Withdrawal{
		MerchantID: merchantID,
		Amount:     amount,
		Status:     model.WithdrawalStatusPending,
		Reference:  u.idGen.NewID(),
		Auto:       auto,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	id, err := r.Withdrawals().Create(ctx, w)
	if err != nil {
		return model.Withdrawal{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	w.ID = id
	return w, nil
}

type SetWithdrawalStatusInput struct {
	Status string
}

// 管理者によるステータス遷移。pending→approved / pending→failedのみ。
// failedは減算済みの残高を戻す。
func (u *WithdrawalUsecase) SetWithdrawalStatus(ctx context.Context, actorAdminUserID int64, withdrawalID int64, in SetWithdrawalStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if withdrawalID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.WithdrawalStatus(in.Status)
	switch newStatus {
	case model.WithdrawalStatusApproved, model.WithdrawalStatusFailed:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		w, err := r.Withdrawals().FindByID(ctx, withdrawalID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//すでに同じなら何もしない（200）
		if w.Status == newStatus {
			return nil
		}
		if w.Status != model.WithdrawalStatusPending {
			return NewHTTPError(http.StatusBadRequest, "cannot change non-pending withdrawal")
		}

		ok, err := r.Withdrawals().UpdateStatusIf(ctx, withdrawalID, model.WithdrawalStatusPending, newStatus)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//同時に別の遷移が入った
			return NewHTTPError(http.StatusBadRequest, "cannot change non-pending withdrawal")
		}

		//failedは申請時に減算した分を残高へ戻す
		if newStatus == model.WithdrawalStatusFailed {
			if err := r.Merchants().AddBalance(ctx, w.MerchantID, w.Amount); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		beforeJSON := `{"status":"` + string(w.Status) + `"}`
		afterJSON := `{"status":"` + string(newStatus) + `"}`
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateWithdrawalStatus,
			ResourceType: model.AuditResourceWithdrawal,
			ResourceID:   withdrawalID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

func (u *WithdrawalUsecase) ListMyWithdrawals(ctx context.Context, merchantID int64, f repo.WithdrawalListFilter) ([]WithdrawalOutput, error) {
	if merchantID <= 0 {
		return []WithdrawalOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []WithdrawalOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ws, _, err := r.Withdrawals().ListByMerchantID(ctx, merchantID, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = make([]WithdrawalOutput, 0, len(ws))
		for _, w := range ws {
			outs = append(outs, toWithdrawalOutput(w))
		}
		return nil
	})

	if err != nil {
		return []WithdrawalOutput{}, err
	}
	return outs, nil
}

func (u *WithdrawalUsecase) ListAdminWithdrawals(ctx context.Context, actorAdminUserID int64, f repo.WithdrawalListFilter) ([]WithdrawalOutput, error) {
	if actorAdminUserID <= 0 {
		return []WithdrawalOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []WithdrawalOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ws, _, err := r.Withdrawals().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = make([]WithdrawalOutput, 0, len(ws))
		for _, w := range ws {
			outs = append(outs, toWithdrawalOutput(w))
		}
		return nil
	})

	if err != nil {
		return []WithdrawalOutput{}, err
	}
	return outs, nil
}

func (u *WithdrawalUsecase) SetAutoWithdrawalInterval(ctx context.Context, merchantID int64, interval model.AutoWithdrawalInterval) error {
	if merchantID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !interval.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid interval")
	}

	err := u.merchants.UpdateAutoWithdrawalInterval(ctx, merchantID, interval)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 自動出金。intervalの境界を越えた店舗ごとに、残高が正なら全額を申請する。
// 店舗ごとに独立したトランザクションで処理し、失敗しても他の店舗は続ける。
func (u *WithdrawalUsecase) RunAutoWithdrawals(ctx context.Context, now time.Time) (int, error) {
	merchants, err := u.merchants.ListAutoWithdrawalEnabled(ctx)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	created := 0
	var firstErr error

	for _, m := range merchants {
		if !autoWithdrawalDue(m, now) {
			continue
		}

		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			//残高はトランザクション内で取り直す
			cur, err := r.Merchants().FindByID(ctx, m.ID)
			if err != nil {
				return err
			}

			//境界は消費する（残高ゼロでも次の境界まで待つ）
			if err := r.Merchants().SetLastAutoWithdrawalAt(ctx, m.ID, now); err != nil {
				return err
			}

			if cur.Balance <= 0 {
				return nil
			}

			w, err := u.requestWithdrawalTx(ctx, r, m.ID, cur.Balance, true)
			if err != nil {
				return err
			}

			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  0,
				Action:       model.AuditActionAutoWithdrawal,
				ResourceType: model.AuditResourceMerchant,
				ResourceID:   m.ID,
				BeforeJSON:   fmt.Sprintf(`{"balance":%d}`, cur.Balance),
				AfterJSON:    fmt.Sprintf(`{"withdrawal_id":%d,"amount":%d}`, w.ID, w.Amount),
				CreatedAt:    now,
			}); err != nil {
				return err
			}

			created++
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return created, firstErr
}

func autoWithdrawalDue(m model.Merchant, now time.Time) bool {
	d := m.AutoWithdrawalInterval.Duration()
	if d <= 0 {
		return false
	}
	if m.LastAutoWithdrawalAt == nil {
		return true
	}
	return now.Sub(*m.LastAutoWithdrawalAt) >= d
}

func toWithdrawalOutput(w model.Withdrawal) WithdrawalOutput {
	return WithdrawalOutput{
		ID:         w.ID,
		MerchantID: w.MerchantID,
		Amount:     w.Amount,
		Status:     string(w.Status),
		Reference:  w.Reference,
		Auto:       w.Auto,
		CreatedAt:  w.CreatedAt,
	}
}
