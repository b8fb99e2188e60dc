package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"walletpay/internal/config"
	"walletpay/internal/models/db_models"
	"walletpay/internal/models/request_models"
	"walletpay/internal/models/response_models"
	"walletpay/internal/repositories"
	mem "walletpay/pkg/memcache"
	"walletpay/pkg/utils"
)

const missingAccessInfo = "Failed to get AccessID/AccessPass"

type TransactionService interface {
	// ProcessPayment runs entry, execute and, when execute fails, void. On a
	// failed flow both the response and the error are returned so the caller
	// still learns the transaction id and its final status. A repeated
	// Idempotency-Key gets the stored outcome back, failures included.
	ProcessPayment(ctx context.Context, req request_models.OneTimePaymentRequest, idempotencyKey string) (*response_models.OneTimePaymentResponse, error)
	GetTransaction(ctx context.Context, id string) (*response_models.TransactionResponse, error)
	ListTransactions(ctx context.Context, query request_models.ListQuery) (*response_models.PageResponse[response_models.TransactionResponse], error)
}

type transactionService struct {
	cfg     *config.Config
	repo    repositories.TransactionRepository
	gateway GatewayClient
	keys    mem.IdempotencyStore
	logger  *zap.Logger
	metrics *Metrics
}

func NewTransactionService(
	cfg *config.Config,
	repo repositories.TransactionRepository,
	gateway GatewayClient,
	keys mem.IdempotencyStore,
	logger *zap.Logger,
	metrics *Metrics,
) TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transactionService{
		cfg:     cfg,
		repo:    repo,
		gateway: gateway,
		keys:    keys,
		logger:  logger.Named("onetime"),
		metrics: metrics,
	}
}

func (s *transactionService) ProcessPayment(ctx context.Context, req request_models.OneTimePaymentRequest, idempotencyKey string) (*response_models.OneTimePaymentResponse, error) {
	req.Normalize()

	txn := &db_models.Transaction{
		Amount:   *req.Amount,
		Currency: req.Currency,
		Status:   db_models.TxnStatusProcessing,
	}
	txn.ID = uuid.New()

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" && s.keys != nil {
		held, created := s.keys.Reserve(idempotencyKey, txn.ID.String())
		if !created {
			return s.replay(ctx, held)
		}
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		if idempotencyKey != "" && s.keys != nil {
			s.keys.Release(idempotencyKey)
		}
		return nil, utils.WrapDatabase(err)
	}

	log := s.logger.With(zap.String("transaction_id", txn.ID.String()))
	resp, err := s.run(ctx, txn, req.Token, log)
	s.metrics.incFlow("onetime", string(txn.Status))
	return resp, err
}

func (s *transactionService) run(ctx context.Context, txn *db_models.Transaction, token string, log *zap.Logger) (*response_models.OneTimePaymentResponse, error) {
	// Terminal writes must land even if the client has gone away.
	persistCtx := context.WithoutCancel(ctx)

	if err := gatewayReady(s.cfg.Gateway); err != nil {
		var appErr *utils.AppError
		msg := "GMO Payment Gateway not configured"
		if errors.As(err, &appErr) {
			if problems, ok := appErr.Fields.([]string); ok {
				msg += ": " + strings.Join(problems, ", ")
			}
		}
		return s.fail(persistCtx, txn, "CONFIG_ERROR", msg, nil, err, log)
	}

	orderID := "ORDER_" + txn.ID.String()
	amount := utils.EncodeAmount(txn.Amount, txn.Currency)

	entry, err := s.gateway.EntryTransaction(ctx, orderID, amount, txn.Currency)
	if err != nil {
		code, info := gatewayFailure(err, "ENTRY_ERROR", "Transaction entry failed")
		return s.fail(persistCtx, txn, code, info, snapshotOf(err), err, log)
	}

	accessID, accessPass := entry.AccessID(), entry.AccessPass()
	if accessID == "" || accessPass == "" {
		appErr := utils.NewAppError(utils.ErrMissingGatewayReference, "ENTRY_ERROR", "Failed to initialize transaction")
		return s.fail(persistCtx, txn, "ENTRY_ERROR", missingAccessInfo, entry.Snapshot(), appErr, log)
	}

	txn.SetAccess(accessID, accessPass, orderID)
	txn.GatewayResponse = entry.Snapshot()
	if err := s.repo.Update(persistCtx, txn, db_models.TxnStatusProcessing); err != nil {
		log.Error("persist gateway session", zap.Error(err))
		return s.compensate(ctx, txn, "EXEC_ERROR", "Transaction execution failed", err, log)
	}

	exec, err := s.gateway.ExecuteTransaction(ctx, accessID, accessPass, orderID, token)
	if err == nil && exec.HasStatus() {
		if err := txn.Complete(); err != nil {
			return nil, err
		}
		txn.GatewayResponse = exec.Snapshot()
		if err := s.repo.Update(persistCtx, txn, db_models.TxnStatusProcessing); err != nil {
			log.Error("persist completed transaction", zap.Error(err))
			return nil, utils.WrapDatabase(err)
		}
		log.Info("payment completed", zap.String("order_id", orderID))
		return &response_models.OneTimePaymentResponse{
			TransactionID:  txn.ID.String(),
			Status:         string(txn.Status),
			Amount:         txn.Amount.String(),
			Currency:       txn.Currency,
			GatewayOrderID: orderID,
		}, nil
	}

	if err == nil {
		err = NewGatewayError(utils.ErrGatewayRejected, "EXEC_ERROR", "Transaction execution failed")
	}
	code, info := gatewayFailure(err, "EXEC_ERROR", "Transaction execution failed")
	if snap := snapshotOf(err); snap != nil {
		txn.GatewayResponse = snap
	}
	return s.compensate(ctx, txn, code, info, err, log)
}

// compensate voids the entered payment once. The transaction ends cancelled
// when the void succeeds and failed otherwise; cause is always what the
// caller sees.
func (s *transactionService) compensate(ctx context.Context, txn *db_models.Transaction, code, info string, cause error, log *zap.Logger) (*response_models.OneTimePaymentResponse, error) {
	compCtx := context.WithoutCancel(ctx)

	_, voidErr := s.gateway.VoidTransaction(compCtx, txn.GatewayAccessID, txn.GatewayAccessPass)
	voided := voidErr == nil
	txn.VoidAttempted = true

	var stateErr error
	if voided {
		log.Info("payment voided after execute failure", zap.String("code", code))
		stateErr = txn.Cancel(code, info)
	} else {
		log.Error("void failed after execute failure", zap.String("code", code), zap.Error(voidErr))
		stateErr = txn.Fail(code, info)
	}
	if stateErr != nil {
		return nil, stateErr
	}
	if err := s.repo.Update(compCtx, txn, db_models.TxnStatusProcessing); err != nil {
		log.Error("persist compensated transaction", zap.Error(err))
		return nil, utils.WrapDatabase(err)
	}

	return &response_models.OneTimePaymentResponse{
		TransactionID:     txn.ID.String(),
		Status:            string(txn.Status),
		Amount:            txn.Amount.String(),
		Currency:          txn.Currency,
		GatewayOrderID:    txn.GatewayOrderID,
		Error:             info,
		RollbackAttempted: true,
		RollbackSucceeded: &voided,
	}, cause
}

func (s *transactionService) fail(ctx context.Context, txn *db_models.Transaction, code, info string, snapshot []byte, cause error, log *zap.Logger) (*response_models.OneTimePaymentResponse, error) {
	log.Warn("payment failed", zap.String("code", code), zap.Error(cause))
	if err := txn.Fail(code, info); err != nil {
		return nil, err
	}
	if snapshot != nil {
		txn.GatewayResponse = snapshot
	}
	if err := s.repo.Update(ctx, txn, db_models.TxnStatusProcessing); err != nil {
		log.Error("persist failed transaction", zap.Error(err))
		return nil, utils.WrapDatabase(err)
	}
	return &response_models.OneTimePaymentResponse{
		TransactionID: txn.ID.String(),
		Status:        string(txn.Status),
		Amount:        txn.Amount.String(),
		Currency:      txn.Currency,
		Error:         info,
	}, cause
}

// replay answers a repeated Idempotency-Key with the stored outcome.
func (s *transactionService) replay(ctx context.Context, heldID string) (*response_models.OneTimePaymentResponse, error) {
	id, err := uuid.Parse(heldID)
	if err != nil {
		return nil, utils.ErrRequestInProgress
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}
	if txn == nil || !txn.Status.IsTerminal() {
		return nil, utils.NewAppError(utils.ErrRequestInProgress, "REQUEST_IN_PROGRESS", "A request with this Idempotency-Key is still being processed")
	}

	attempted, succeeded := txn.RollbackOutcome()
	resp := &response_models.OneTimePaymentResponse{
		TransactionID:     txn.ID.String(),
		Status:            string(txn.Status),
		Amount:            txn.Amount.String(),
		Currency:          txn.Currency,
		GatewayOrderID:    txn.GatewayOrderID,
		Error:             txn.ErrorMessage,
		RollbackAttempted: attempted,
		RollbackSucceeded: succeeded,
		Replayed:          true,
	}
	if txn.Status == db_models.TxnStatusCompleted {
		return resp, nil
	}
	return resp, replayError(txn)
}

// replayError rebuilds the error class a failed or cancelled transaction was
// first answered with.
func replayError(txn *db_models.Transaction) error {
	switch {
	case txn.ErrorCode == "CONFIG_ERROR":
		return utils.NewAppError(utils.ErrGatewayNotConfigured, txn.ErrorCode, "Payment gateway not configured")
	case txn.ErrorMessage == missingAccessInfo:
		return utils.NewAppError(utils.ErrMissingGatewayReference, txn.ErrorCode, "Failed to initialize transaction")
	}
	return NewGatewayError(utils.ErrGatewayRejected, txn.ErrorCode, txn.ErrorMessage)
}

func (s *transactionService) GetTransaction(ctx context.Context, id string) (*response_models.TransactionResponse, error) {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "VALIDATION_ERROR", "Invalid transaction id")
	}
	txn, err := s.repo.FindByID(ctx, txnID)
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}
	if txn == nil {
		return nil, utils.ErrTransactionNotFound
	}
	resp := toTransactionResponse(txn)
	return &resp, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, query request_models.ListQuery) (*response_models.PageResponse[response_models.TransactionResponse], error) {
	if err := checkPage(query.Page, query.PageSize); err != nil {
		return nil, err
	}
	txns, total, err := s.repo.List(ctx, repositories.TransactionFilter{
		Status:   strings.ToLower(query.Status),
		Currency: strings.ToUpper(query.Currency),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}

	items := make([]response_models.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	return &response_models.PageResponse[response_models.TransactionResponse]{
		Items:    items,
		Page:     query.Page,
		PageSize: query.PageSize,
		Total:    total,
	}, nil
}

// gatewayFailure picks the code and message recorded on a row for err.
func gatewayFailure(err error, fallbackCode, fallbackInfo string) (string, string) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		code, info := gwErr.Code, gwErr.Info
		if code == "" {
			code = fallbackCode
		}
		if info == "" {
			info = fallbackInfo
		}
		return code, info
	}
	return fallbackCode, fallbackInfo
}

func snapshotOf(err error) []byte {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Snapshot()
	}
	return nil
}
