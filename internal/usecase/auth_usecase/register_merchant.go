package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 店舗登録の入力
type RegisterMerchantInput struct {
	Email        string
	Password     string
	MerchantName string
}

// 店舗登録の出力
type RegisterMerchantOutput struct {
	User     model.User
	Merchant model.Merchant
}

var (
	// 入力が不正
	ErrInvalidEmailFormat  = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrMerchantNameMissing = errors.New("merchant name required")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// RegisterMerchantUsecaseは店舗登録の処理。
// ユーザーと店舗アカウントを1トランザクションで作る。
type RegisterMerchantUsecase struct {
	tx     repository.TransactionManager
	hasher PasswordHasher
	clock  Clock
}

// DI
func NewRegisterMerchantUsecase(
	tx repository.TransactionManager,
	hasher PasswordHasher,
	clock Clock,
) *RegisterMerchantUsecase {
	return &RegisterMerchantUsecase{
		tx:     tx,
		hasher: hasher,
		clock:  clock,
	}
}

// 店舗登録実行
func (u *RegisterMerchantUsecase) Execute(ctx context.Context, in RegisterMerchantInput) (RegisterMerchantOutput, error) {
	var out RegisterMerchantOutput

	if !isValidEmailFormat(in.Email) {
		return out, ErrInvalidEmailFormat
	}

	// password の長さチェック（最小8文字）
	if len(in.Password) < 8 {
		return out, ErrPasswordTooShort
	}

	name := strings.TrimSpace(in.MerchantName)
	if name == "" {
		return out, ErrMerchantNameMissing
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	now := u.clock.Now()
	email := strings.TrimSpace(in.Email)

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		// email重複チェック
		_, found, err := r.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if found {
			return ErrEmailAlreadyExists
		}

		user := model.User{
			Email:        email,
			PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
			Role:         model.RoleUser,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		userID, err := r.Users().Create(ctx, user)
		if err != nil {
			return err
		}
		user.ID = userID

		merchant := model.Merchant{
			UserID:                 userID,
			Name:                   name,
			Balance:                0,
			AutoWithdrawalInterval: model.AutoWithdrawalOff,
			CreatedAt:              now,
			UpdatedAt:              now,
		}

		merchantID, err := r.Merchants().Create(ctx, merchant)
		if err != nil {
			return err
		}
		merchant.ID = merchantID

		// 返すときは password を空にして漏洩防止
		user.PasswordHash = ""
		out.User = user
		out.Merchant = merchant
		return nil
	})

	if err != nil {
		return RegisterMerchantOutput{}, err
	}
	return out, nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	_, err := mail.ParseAddress(trimmed)
	return err == nil
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
