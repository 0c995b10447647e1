package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type FinanceStore interface {
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)
	GetAccount(ctx context.Context, userID string, id int64) (*model.Account, error)
	CreateAccount(ctx context.Context, a *model.Account) error
	UpdateAccount(ctx context.Context, a *model.Account) error
	DeleteAccount(ctx context.Context, userID string, id int64) error

	ListTransactions(ctx context.Context, userID string, accountID *int64) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, userID string, id int64) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID string, id int64) error
}

type FinanceService struct {
	store  FinanceStore
	logger *zap.Logger
}

func NewFinanceService(store FinanceStore, logger *zap.Logger) *FinanceService {
	return &FinanceService{store: store, logger: logger}
}

func (s *FinanceService) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

func (s *FinanceService) GetAccount(ctx context.Context, userID string, id int64) (*model.Account, error) {
	return s.store.GetAccount(ctx, userID, id)
}

func (s *FinanceService) CreateAccount(ctx context.Context, userID string, a *model.Account) error {
	a.UserID = userID
	a.Name = strings.TrimSpace(a.Name)
	if a.Type == "" {
		a.Type = model.AccountChecking
	}
	if err := a.Validate(); err != nil {
		return err
	}
	return s.store.CreateAccount(ctx, a)
}

func (s *FinanceService) UpdateAccount(ctx context.Context, userID string, id int64, patch model.AccountPatch) (*model.Account, error) {
	a, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(a)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *FinanceService) DeleteAccount(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteAccount(ctx, userID, id)
}

func (s *FinanceService) ListTransactions(ctx context.Context, userID string, accountID *int64) ([]model.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, accountID)
}

// RecordTransaction stores t and applies it to its account balance.
func (s *FinanceService) RecordTransaction(ctx context.Context, userID string, t *model.Transaction) error {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return err
	}
	return s.store.CreateTransaction(ctx, t)
}

// ReplaceTransaction overwrites transaction id with t; the balance moves by the difference.
func (s *FinanceService) ReplaceTransaction(ctx context.Context, userID string, id int64, t *model.Transaction) error {
	t.ID = id
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return err
	}
	return s.store.UpdateTransaction(ctx, t)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteTransaction(ctx, userID, id)
}

func FinanceSummaryOf(accounts []model.Account, txs []model.Transaction) model.FinanceSummary {
	sum := model.FinanceSummary{AccountCount: len(accounts), TransactionCount: len(txs)}
	for _, a := range accounts {
		sum.TotalBalanceCents += a.BalanceCents
	}
	for _, t := range txs {
		switch t.Type {
		case model.TransactionIncome:
			sum.IncomeCents += t.AmountCents
		case model.TransactionExpense:
			sum.ExpenseCents += t.AmountCents
		}
	}
	return sum
}

func (s *FinanceService) Summary(ctx context.Context, userID string) (model.FinanceSummary, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return model.FinanceSummary{}, err
	}
	txs, err := s.store.ListTransactions(ctx, userID, nil)
	if err != nil {
		return model.FinanceSummary{}, err
	}
	return FinanceSummaryOf(accounts, txs), nil
}
