package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contractsmq "lifeboard/contracts/mq"
	"lifeboard/internal/model"
)

// FinanceRepository stores accounts and transactions. Every transaction write adjusts the
// owning account's balance inside the same database transaction.
type FinanceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFinanceRepository(db *pgxpool.Pool, logger *zap.Logger) *FinanceRepository {
	return &FinanceRepository{db: db, logger: logger}
}

const accountColumns = `id, user_id, name, type, balance_cents, bank, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.BalanceCents, &a.Bank, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *FinanceRepository) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		r.logger.Error("Failed to list accounts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *FinanceRepository) GetAccount(ctx context.Context, userID string, id int64) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2
	`, id, userID))
	return a, translate(err)
}

func (r *FinanceRepository) CreateAccount(ctx context.Context, a *model.Account) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (user_id, name, type, balance_cents, bank)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, a.UserID, a.Name, a.Type, a.BalanceCents, a.Bank).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert account", zap.Error(err))
		return translate(err)
	}
	r.logger.Info("Account inserted successfully", zap.Int64("id", a.ID), zap.String("user_id", a.UserID))
	return nil
}

func (r *FinanceRepository) UpdateAccount(ctx context.Context, a *model.Account) error {
	err := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET name = $3, type = $4, balance_cents = $5, bank = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, a.ID, a.UserID, a.Name, a.Type, a.BalanceCents, a.Bank).Scan(&a.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update account", zap.Int64("id", a.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}

// DeleteAccount also removes the account's transactions through the foreign key.
func (r *FinanceRepository) DeleteAccount(ctx context.Context, userID string, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		r.logger.Error("Failed to delete account", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

const transactionColumns = `id, user_id, account_id, description, amount_cents, type, category, date, created_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var t model.Transaction
	var date time.Time
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Description, &t.AmountCents, &t.Type, &t.Category, &date, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Date = dateOf(date)
	return &t, nil
}

// ListTransactions lists newest first, optionally for one account.
func (r *FinanceRepository) ListTransactions(ctx context.Context, userID string, accountID *int64) ([]model.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1 AND ($2::BIGINT IS NULL OR account_id = $2)
		ORDER BY date DESC, id DESC
	`, userID, accountID)
	if err != nil {
		r.logger.Error("Failed to list transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	txs := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *FinanceRepository) GetTransaction(ctx context.Context, userID string, id int64) (*model.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2
	`, id, userID))
	return t, translate(err)
}

// adjustBalance adds delta to an account owned by userID.
func adjustBalance(ctx context.Context, tx pgx.Tx, userID string, accountID, delta int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, accountID, userID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, model.ErrNotFound)
	}
	return nil
}

func (r *FinanceRepository) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := adjustBalance(ctx, tx, t.UserID, t.AccountID, t.Effect()); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO transactions (user_id, account_id, description, amount_cents, type, category, date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`, t.UserID, t.AccountID, t.Description, t.AmountCents, t.Type, t.Category, dateArg(t.Date),
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			return err
		}

		payload := contractsmq.TransactionRecordedPayload{
			TransactionID: t.ID,
			AccountID:     t.AccountID,
			Type:          string(t.Type),
			AmountCents:   t.AmountCents,
		}
		if t.Description != nil {
			payload.Description = *t.Description
		}
		return emit(ctx, tx, "transaction", t.ID, contractsmq.RoutingTransactionRecorded, t.UserID, payload)
	})
	if err != nil {
		r.logger.Error("Failed to insert transaction",
			zap.String("user_id", t.UserID),
			zap.Int64("account_id", t.AccountID),
			zap.Error(err),
		)
		return translate(err)
	}
	r.logger.Info("Transaction recorded",
		zap.Int64("id", t.ID),
		zap.Int64("account_id", t.AccountID),
		zap.Int64("effect_cents", t.Effect()),
	)
	return nil
}

// UpdateTransaction reverts the stored transaction's effect, then applies the new one,
// which may target a different account.
func (r *FinanceRepository) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		old, err := scanTransaction(tx.QueryRow(ctx, `
			SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE
		`, t.ID, t.UserID))
		if err != nil {
			return err
		}
		if err := adjustBalance(ctx, tx, t.UserID, old.AccountID, -old.Effect()); err != nil {
			return err
		}
		if err := adjustBalance(ctx, tx, t.UserID, t.AccountID, t.Effect()); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE transactions
			SET account_id = $3, description = $4, amount_cents = $5, type = $6, category = $7, date = $8
			WHERE id = $1 AND user_id = $2
		`, t.ID, t.UserID, t.AccountID, t.Description, t.AmountCents, t.Type, t.Category, dateArg(t.Date))
		t.CreatedAt = old.CreatedAt
		return err
	})
	if err != nil {
		r.logger.Error("Failed to update transaction", zap.Int64("id", t.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}

// DeleteTransaction reverts the balance effect. A missing transaction is not an error.
func (r *FinanceRepository) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		old, err := scanTransaction(tx.QueryRow(ctx, `
			DELETE FROM transactions WHERE id = $1 AND user_id = $2
			RETURNING `+transactionColumns, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return adjustBalance(ctx, tx, userID, old.AccountID, -old.Effect())
	})
	if err != nil {
		r.logger.Error("Failed to delete transaction", zap.Int64("id", id), zap.Error(err))
		return translate(err)
	}
	return nil
}
