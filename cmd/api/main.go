package main

import (
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/handler"
	"marketplace/internal/infra/db"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/llm"
	"marketplace/internal/server"
	"marketplace/internal/usecase"
	auth "marketplace/internal/usecase/auth_usecase"
	"marketplace/internal/validator"
	"marketplace/internal/worker"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(secret string) *jwtIssuer {
	//アクセストークン
	return &jwtIssuer{
		secret:    []byte(secret),
		accessTTL: 15 * time.Minute,
	}
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envはなくてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Merchant{},
		&model.Order{},
		&model.OrderItem{},
		&model.Withdrawal{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	merchantRepo := infraRepo.NewMerchantGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	withdrawalRepo := infraRepo.NewWithdrawalGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := newJWTIssuer(cfg.JWTSecret)

	checkoutValidator := validator.NewCheckoutValidator()

	serviceCharge := usecase.ServiceChargeConfig{
		Amount:    cfg.ServiceCharge,
		Threshold: cfg.ServiceChargeThreshold,
	}

	//Usecase生成
	registerUC := auth.NewRegisterMerchantUsecase(txManager, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, merchantRepo, verifier, issuer, clock)
	orderUC := usecase.NewOrderUsecase(txManager, checkoutValidator, serviceCharge, clock)
	subscriptionUC := usecase.NewSubscriptionUsecase(txManager, checkoutValidator, clock)
	withdrawalUC := usecase.NewWithdrawalUsecase(txManager, merchantRepo, idGen, clock)
	ledgerUC := usecase.NewLedgerUsecase(orderRepo, withdrawalRepo, merchantRepo)
	dashboardUC := usecase.NewDashboardUsecase(txManager)

	//LLMクライアント
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, 30*time.Second)

	//Handler生成
	handlers := server.Handlers{
		Auth:            handler.NewAuthHandler(registerUC, loginUC),
		Order:           handler.NewOrderHandler(orderUC, merchantRepo),
		Subscription:    handler.NewSubscriptionHandler(subscriptionUC, merchantRepo),
		Withdrawal:      handler.NewWithdrawalHandler(withdrawalUC, ledgerUC, merchantRepo),
		AdminWithdrawal: handler.NewAdminWithdrawalHandler(withdrawalUC),
		Dashboard:       handler.NewDashboardHandler(dashboardUC, merchantRepo),
		Assistant:       handler.NewAssistantHandler(llmClient, cfg),
	}

	//定期ジョブ起動
	scheduler := worker.NewScheduler(withdrawalUC, subscriptionUC)
	if err := scheduler.Start(); err != nil {
		log.Fatal(err)
	}
	defer scheduler.Stop()

	//Server起動
	addr := ":" + cfg.Port
	e := server.New(cfg, handlers)
	if err := server.Start(e, addr); err != nil {
		log.Fatal(err)
	}
}
