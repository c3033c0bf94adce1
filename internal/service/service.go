package service

import (
	"log/slog"

	"github.com/hance08/keasync/internal/billing"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/store"
)

type Service struct {
	Account     *AccountService
	Transaction *TransactionService
	Billing     *BillingService
}

func NewService(repo store.Repository, cfg *config.Config, logger *slog.Logger, metrics *billing.Metrics) *Service {
	return &Service{
		Account:     NewAccountService(repo, cfg),
		Transaction: NewTransactionService(repo),
		Billing:     NewBillingService(repo, cfg, logger, metrics),
	}
}
