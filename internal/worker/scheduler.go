package worker

import (
	"context"
	"log"
	"time"

	"marketplace/internal/usecase"

	"github.com/robfig/cron/v3"
)

// Schedulerは定期ジョブ（自動出金・定期注文の繰り越し）を回す。
type Scheduler struct {
	cron          *cron.Cron
	withdrawals   *usecase.WithdrawalUsecase
	subscriptions *usecase.SubscriptionUsecase
}

func NewScheduler(withdrawals *usecase.WithdrawalUsecase, subscriptions *usecase.SubscriptionUsecase) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		withdrawals:   withdrawals,
		subscriptions: subscriptions,
	}
}

// Startはジョブを登録してcronを起動する。
func (s *Scheduler) Start() error {
	//自動出金の境界チェック。intervalの最小単位が1時間なので1分刻みで十分。
	if _, err := s.cron.AddFunc("@every 1m", s.runAutoWithdrawals); err != nil {
		return err
	}

	//定期注文の配達日繰り越し
	if _, err := s.cron.AddFunc("@every 10m", s.advanceSubscriptions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stopは実行中のジョブを待ってから止める。
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runAutoWithdrawals() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	created, err := s.withdrawals.RunAutoWithdrawals(ctx, now)
	if err != nil {
		log.Printf("auto withdrawal job: %v", err)
	}
	if created > 0 {
		log.Printf("auto withdrawal job: created %d withdrawals", created)
	}
}

func (s *Scheduler) advanceSubscriptions() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	advanced, err := s.subscriptions.AdvanceDueSchedules(ctx, now)
	if err != nil {
		log.Printf("subscription schedule job: %v", err)
	}
	if advanced > 0 {
		log.Printf("subscription schedule job: advanced %d schedules", advanced)
	}
}
