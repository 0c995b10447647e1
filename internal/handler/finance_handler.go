package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type FinanceService interface {
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)
	GetAccount(ctx context.Context, userID string, id int64) (*model.Account, error)
	CreateAccount(ctx context.Context, userID string, a *model.Account) error
	UpdateAccount(ctx context.Context, userID string, id int64, patch model.AccountPatch) (*model.Account, error)
	DeleteAccount(ctx context.Context, userID string, id int64) error
	ListTransactions(ctx context.Context, userID string, accountID *int64) ([]model.Transaction, error)
	RecordTransaction(ctx context.Context, userID string, t *model.Transaction) error
	ReplaceTransaction(ctx context.Context, userID string, id int64, t *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID string, id int64) error
	Summary(ctx context.Context, userID string) (model.FinanceSummary, error)
}

type FinanceHandler struct {
	svc    FinanceService
	logger *zap.Logger
}

func NewFinanceHandler(svc FinanceService, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{svc: svc, logger: logger}
}

func (h *FinanceHandler) ListAccounts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	accounts, err := h.svc.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "ListAccounts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *FinanceHandler) GetAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	account, err := h.svc.GetAccount(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, "GetAccount", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *FinanceHandler) CreateAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.Account
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.CreateAccount(c.Request.Context(), userID, &in); err != nil {
		respondError(c, h.logger, "CreateAccount", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": in})
}

func (h *FinanceHandler) UpdateAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch model.AccountPatch
	if !bindJSON(c, &patch) {
		return
	}

	account, err := h.svc.UpdateAccount(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, h.logger, "UpdateAccount", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *FinanceHandler) DeleteAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteAccount", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTransactions GET /finance/transactions?account_id=
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	accountID, ok := optionalInt64(c, "account_id")
	if !ok {
		return
	}

	txs, err := h.svc.ListTransactions(c.Request.Context(), userID, accountID)
	if err != nil {
		respondError(c, h.logger, "ListTransactions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in model.Transaction
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.RecordTransaction(c.Request.Context(), userID, &in); err != nil {
		respondError(c, h.logger, "CreateTransaction", err)
		return
	}
	h.logger.Info("CreateTransaction: success",
		zap.String("user_id", userID),
		zap.Int64("transaction_id", in.ID),
		zap.Int64("account_id", in.AccountID),
	)
	c.JSON(http.StatusCreated, gin.H{"transaction": in})
}

// UpdateTransaction replaces the whole transaction; the balance effect of the
// old version is reverted before the new one is applied.
func (h *FinanceHandler) UpdateTransaction(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in model.Transaction
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.ReplaceTransaction(c.Request.Context(), userID, id, &in); err != nil {
		respondError(c, h.logger, "UpdateTransaction", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": in})
}

func (h *FinanceHandler) DeleteTransaction(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, "DeleteTransaction", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FinanceHandler) Summary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "FinanceSummary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
