package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletpay/internal/config"
	"walletpay/internal/models/db_models"
	"walletpay/internal/models/request_models"
	"walletpay/internal/services"
	"walletpay/internal/testutil"
	mem "walletpay/pkg/memcache"
	"walletpay/pkg/utils"
)

type onetimeFixture struct {
	cfg     *config.Config
	repo    *testutil.TransactionStore
	gateway *testutil.FakeGateway
	keys    *mem.IdempotencyKeys
	svc     services.TransactionService
}

func newOnetimeFixture() *onetimeFixture {
	cfg := testutil.ValidConfig()
	f := &onetimeFixture{
		cfg:     cfg,
		repo:    testutil.NewTransactionStore(),
		gateway: testutil.NewFakeGateway(),
		keys:    mem.NewIdempotencyKeys(cfg.IdempotencyMaxKeys, cfg.IdempotencyTTL),
	}
	f.svc = services.NewTransactionService(f.cfg, f.repo, f.gateway, f.keys, nil, nil)
	return f
}

func onetimeRequest(amount, currency string) request_models.OneTimePaymentRequest {
	return request_models.OneTimePaymentRequest{
		Token:    testutil.ValidToken,
		Amount:   testutil.Amount(amount),
		Currency: currency,
	}
}

func (f *onetimeFixture) stored(t *testing.T, id string) *db_models.Transaction {
	t.Helper()
	txn, err := f.repo.FindByID(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	require.NotNil(t, txn)
	return txn
}

func TestProcessPaymentCompletes(t *testing.T) {
	f := newOnetimeFixture()

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "500", resp.Amount)
	assert.Equal(t, "JPY", resp.Currency)
	assert.Equal(t, "ORDER_"+resp.TransactionID, resp.GatewayOrderID)

	assert.Equal(t, []string{testutil.OpEntry, testutil.OpExecute}, f.gateway.Ops())
	entry := f.gateway.CallsTo(testutil.OpEntry)[0]
	assert.Equal(t, "500", entry.Args["Amount"])

	exec := f.gateway.CallsTo(testutil.OpExecute)[0]
	assert.Equal(t, "access-id-1", exec.Args["AccessID"])
	assert.Equal(t, "access-pass-1", exec.Args["AccessPass"])

	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, db_models.TxnStatusCompleted, txn.Status)
	assert.Equal(t, "access-id-1", txn.GatewayAccessID)
	assert.Equal(t, "access-pass-1", txn.GatewayAccessPass)
	assert.Empty(t, txn.ErrorCode)
}

func TestProcessPaymentEncodesMinorUnits(t *testing.T) {
	cases := []struct {
		amount, currency, encoded string
	}{
		{"10.50", "USD", "1050"},
		{"10.29", "EUR", "1029"},
		{"10.50", "GBP", "10"},
		{"1000", "JPY", "1000"},
	}
	for _, tc := range cases {
		f := newOnetimeFixture()
		_, err := f.svc.ProcessPayment(context.Background(), onetimeRequest(tc.amount, tc.currency), "")
		require.NoError(t, err)
		assert.Equal(t, tc.encoded, f.gateway.CallsTo(testutil.OpEntry)[0].Args["Amount"], tc.currency)
	}
}

func TestProcessPaymentDefaultsCurrency(t *testing.T) {
	f := newOnetimeFixture()
	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("100", ""), "")
	require.NoError(t, err)
	assert.Equal(t, "JPY", resp.Currency)
}

func TestEntryFailureSkipsExecute(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Fail(testutil.OpEntry, testutil.Rejected("E01", "E01040010"))

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.ErrorIs(t, err, utils.ErrGatewayRejected)
	require.NotNil(t, resp)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, "E01040010", resp.Error)

	assert.Equal(t, []string{testutil.OpEntry}, f.gateway.Ops())
	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, db_models.TxnStatusFailed, txn.Status)
	assert.Equal(t, "E01", txn.ErrorCode)
	assert.Empty(t, txn.GatewayAccessID)
	assert.Empty(t, txn.GatewayAccessPass)
}

func TestEntryWithoutAccessFails(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Respond(testutil.OpEntry, map[string]string{"AccessID": "only-id"})

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.ErrorIs(t, err, utils.ErrMissingGatewayReference)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, []string{testutil.OpEntry}, f.gateway.Ops())

	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, db_models.TxnStatusFailed, txn.Status)
	assert.Equal(t, "Failed to get AccessID/AccessPass", txn.ErrorMessage)
}

func TestExecuteFailureVoidsOnce(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Fail(testutil.OpExecute, testutil.Rejected("E92", "E92000001"))

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.ErrorIs(t, err, utils.ErrGatewayRejected)
	assert.Equal(t, "cancelled", resp.Status)
	assert.True(t, resp.RollbackAttempted)
	require.NotNil(t, resp.RollbackSucceeded)
	assert.True(t, *resp.RollbackSucceeded)

	voids := f.gateway.CallsTo(testutil.OpVoid)
	require.Len(t, voids, 1)
	assert.Equal(t, "access-id-1", voids[0].Args["AccessID"])
	assert.Equal(t, "access-pass-1", voids[0].Args["AccessPass"])

	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, db_models.TxnStatusCancelled, txn.Status)
	assert.Equal(t, "E92", txn.ErrorCode)
	assert.Equal(t, "E92000001", txn.ErrorMessage)
}

func TestVoidFailureLeavesTransactionFailed(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Fail(testutil.OpExecute, testutil.Rejected("E92", "E92000001"))
	f.gateway.Fail(testutil.OpVoid, testutil.Rejected("M01", "M01004002"))

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.Error(t, err)

	var gwErr *services.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "E92", gwErr.Code, "execute error is preserved")

	assert.Equal(t, "failed", resp.Status)
	require.NotNil(t, resp.RollbackSucceeded)
	assert.False(t, *resp.RollbackSucceeded)
	assert.Len(t, f.gateway.CallsTo(testutil.OpVoid), 1)

	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, db_models.TxnStatusFailed, txn.Status)
	assert.Equal(t, "E92", txn.ErrorCode)
	assert.True(t, txn.VoidAttempted)
}

func TestExecuteWithoutStatusIsFailure(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Respond(testutil.OpExecute, map[string]string{"OrderID": "x"})

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.Error(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Len(t, f.gateway.CallsTo(testutil.OpVoid), 1)

	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, "EXEC_ERROR", txn.ErrorCode)
	assert.Equal(t, "Transaction execution failed", txn.ErrorMessage)
}

func TestUnconfiguredGatewayFailsTransaction(t *testing.T) {
	f := newOnetimeFixture()
	f.cfg.Gateway.ShopPass = ""

	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "")
	require.ErrorIs(t, err, utils.ErrGatewayNotConfigured)
	assert.Equal(t, "failed", resp.Status)
	assert.Empty(t, f.gateway.Calls())

	txn := f.stored(t, resp.TransactionID)
	assert.Equal(t, "CONFIG_ERROR", txn.ErrorCode)
	assert.Contains(t, txn.ErrorMessage, "GMO_SHOP_PASS")
}

func TestIdempotencyKeyReplaysOutcome(t *testing.T) {
	f := newOnetimeFixture()

	first, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.NoError(t, err)

	second, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, "completed", second.Status)

	assert.Len(t, f.gateway.CallsTo(testutil.OpEntry), 1)
	assert.Len(t, f.repo.All(), 1)
}

func TestIdempotencyKeyReplaysCancelledOutcome(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Fail(testutil.OpExecute, testutil.Rejected("E92", "E92000001"))

	first, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.ErrorIs(t, err, utils.ErrGatewayRejected)

	second, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.ErrorIs(t, err, utils.ErrGatewayRejected)
	var gwErr *services.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "E92", gwErr.Code)

	require.NotNil(t, second)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, "cancelled", second.Status)
	assert.True(t, second.RollbackAttempted)
	require.NotNil(t, second.RollbackSucceeded)
	assert.True(t, *second.RollbackSucceeded)
	assert.Len(t, f.gateway.CallsTo(testutil.OpVoid), 1)
}

func TestIdempotencyKeyReplaysFailedVoid(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Fail(testutil.OpExecute, testutil.Rejected("E92", "E92000001"))
	f.gateway.Fail(testutil.OpVoid, testutil.Rejected("M01", "M01004002"))

	_, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.Error(t, err)

	second, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.ErrorIs(t, err, utils.ErrGatewayRejected)
	assert.Equal(t, "failed", second.Status)
	assert.True(t, second.RollbackAttempted)
	require.NotNil(t, second.RollbackSucceeded)
	assert.False(t, *second.RollbackSucceeded)
}

func TestIdempotencyKeyReplaysEntryFailure(t *testing.T) {
	f := newOnetimeFixture()
	f.gateway.Fail(testutil.OpEntry, testutil.Rejected("E01", "E01040010"))

	_, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.Error(t, err)

	second, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.ErrorIs(t, err, utils.ErrGatewayRejected)
	assert.Equal(t, "failed", second.Status)
	assert.False(t, second.RollbackAttempted)
	assert.Nil(t, second.RollbackSucceeded)
	assert.Len(t, f.gateway.CallsTo(testutil.OpEntry), 1)
}

func TestIdempotencyKeyReplaysConfigFailure(t *testing.T) {
	f := newOnetimeFixture()
	f.cfg.Gateway.ShopPass = ""

	_, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.ErrorIs(t, err, utils.ErrGatewayNotConfigured)

	_, err = f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	assert.ErrorIs(t, err, utils.ErrGatewayNotConfigured)
}

func TestIdempotencyKeyInFlight(t *testing.T) {
	f := newOnetimeFixture()
	held := uuid.New()
	f.keys.Reserve("key-1", held.String())
	require.NoError(t, f.repo.Create(context.Background(), &db_models.Transaction{
		BaseModel: db_models.BaseModel{ID: held},
		Amount:    decimal.NewFromInt(500),
		Currency:  "JPY",
		Status:    db_models.TxnStatusProcessing,
	}))

	_, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("500", "JPY"), "key-1")
	require.ErrorIs(t, err, utils.ErrRequestInProgress)
	assert.Empty(t, f.gateway.Calls())
}

func TestGetTransactionHidesAccessPass(t *testing.T) {
	f := newOnetimeFixture()
	resp, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("12.34", "USD"), "")
	require.NoError(t, err)

	got, err := f.svc.GetTransaction(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "12.34", got.Amount)
	assert.Equal(t, "completed", got.Status)

	_, err = f.svc.GetTransaction(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrTransactionNotFound)

	_, err = f.svc.GetTransaction(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestListTransactions(t *testing.T) {
	f := newOnetimeFixture()
	for i := 0; i < 3; i++ {
		_, err := f.svc.ProcessPayment(context.Background(), onetimeRequest("100", "JPY"), "")
		require.NoError(t, err)
	}
	f.gateway.Fail(testutil.OpEntry, testutil.Rejected("E01", "x"))
	_, _ = f.svc.ProcessPayment(context.Background(), onetimeRequest("100", "USD"), "")

	page, err := f.svc.ListTransactions(context.Background(), request_models.ListQuery{Page: 1, PageSize: 2, Status: "completed"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	usd, err := f.svc.ListTransactions(context.Background(), request_models.ListQuery{Page: 1, PageSize: 10, Currency: "usd"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, usd.Total)

	_, err = f.svc.ListTransactions(context.Background(), request_models.ListQuery{Page: 0, PageSize: 10})
	assert.ErrorIs(t, err, utils.ErrInvalidPage)
	_, err = f.svc.ListTransactions(context.Background(), request_models.ListQuery{Page: 1, PageSize: 101})
	assert.ErrorIs(t, err, utils.ErrInvalidPageSize)
}
