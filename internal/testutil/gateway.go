package testutil

import (
	"context"
	"strconv"
	"sync"

	"walletpay/internal/services"
	"walletpay/pkg/utils"
)

const (
	OpEntry            = "entry"
	OpExecute          = "execute"
	OpRegisterMember   = "register_member"
	OpSaveCard         = "save_card"
	OpExecuteRecurring = "execute_recurring"
	OpVoid             = "void"
	OpDeleteCard       = "delete_card"
	OpDeleteMember     = "delete_member"
)

type GatewayCall struct {
	Op   string
	Args map[string]string
}

type gatewayResult struct {
	fields map[string]string
	err    error
}

// FakeGateway is a scripted services.GatewayClient. Operations without a
// scripted result succeed with a typical gateway response.
type FakeGateway struct {
	mu      sync.Mutex
	calls   []GatewayCall
	scripts map[string][]gatewayResult
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{scripts: make(map[string][]gatewayResult)}
}

var _ services.GatewayClient = (*FakeGateway)(nil)

// Respond queues a successful response for the next call to op.
func (g *FakeGateway) Respond(op string, fields map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripts[op] = append(g.scripts[op], gatewayResult{fields: fields})
}

// Fail queues an error for the next call to op.
func (g *FakeGateway) Fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripts[op] = append(g.scripts[op], gatewayResult{err: err})
}

// Calls returns the recorded calls in order.
func (g *FakeGateway) Calls() []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GatewayCall(nil), g.calls...)
}

func (g *FakeGateway) CallsTo(op string) []GatewayCall {
	var out []GatewayCall
	for _, c := range g.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the operation names in call order.
func (g *FakeGateway) Ops() []string {
	var ops []string
	for _, c := range g.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

func (g *FakeGateway) record(op string, args map[string]string, defaults map[string]string) (*services.GatewayResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, GatewayCall{Op: op, Args: args})
	if queue := g.scripts[op]; len(queue) > 0 {
		next := queue[0]
		g.scripts[op] = queue[1:]
		if next.err != nil {
			return nil, next.err
		}
		return &services.GatewayResponse{Fields: next.fields}, nil
	}
	return &services.GatewayResponse{Fields: defaults}, nil
}

func (g *FakeGateway) EntryTransaction(_ context.Context, orderID string, amount int64, currency string) (*services.GatewayResponse, error) {
	return g.record(OpEntry,
		map[string]string{"OrderID": orderID, "Amount": strconv.FormatInt(amount, 10), "Currency": currency},
		map[string]string{"AccessID": "access-id-1", "AccessPass": "access-pass-1"})
}

func (g *FakeGateway) ExecuteTransaction(_ context.Context, accessID, accessPass, orderID, token string) (*services.GatewayResponse, error) {
	return g.record(OpExecute,
		map[string]string{"AccessID": accessID, "AccessPass": accessPass, "OrderID": orderID, "Token": token},
		map[string]string{"Status": "CAPTURE", "OrderID": orderID})
}

func (g *FakeGateway) RegisterMember(_ context.Context, memberID, memberName string) (*services.GatewayResponse, error) {
	return g.record(OpRegisterMember,
		map[string]string{"MemberID": memberID, "MemberName": memberName},
		map[string]string{"MemberID": memberID})
}

func (g *FakeGateway) SaveCard(_ context.Context, memberID, token string, recurring bool) (*services.GatewayResponse, error) {
	return g.record(OpSaveCard,
		map[string]string{"MemberID": memberID, "Token": token, "Recurring": strconv.FormatBool(recurring)},
		map[string]string{"CardID": "0"})
}

func (g *FakeGateway) ExecuteRecurring(_ context.Context, orderID, memberID, cardID string, amount int64, currency string) (*services.GatewayResponse, error) {
	return g.record(OpExecuteRecurring,
		map[string]string{"OrderID": orderID, "MemberID": memberID, "CardID": cardID, "Amount": strconv.FormatInt(amount, 10), "Currency": currency},
		map[string]string{"Status": "CAPTURE", "OrderID": orderID})
}

func (g *FakeGateway) VoidTransaction(_ context.Context, accessID, accessPass string) (*services.GatewayResponse, error) {
	return g.record(OpVoid,
		map[string]string{"AccessID": accessID, "AccessPass": accessPass},
		map[string]string{"AccessID": accessID, "Status": "VOID"})
}

func (g *FakeGateway) DeleteCard(_ context.Context, memberID, cardID string) (*services.GatewayResponse, error) {
	return g.record(OpDeleteCard,
		map[string]string{"MemberID": memberID, "CardID": cardID},
		map[string]string{"CardID": cardID})
}

func (g *FakeGateway) DeleteMember(_ context.Context, memberID string) (*services.GatewayResponse, error) {
	return g.record(OpDeleteMember,
		map[string]string{"MemberID": memberID},
		map[string]string{"MemberID": memberID})
}

// Rejected builds the error the gateway client returns for an ErrCode response.
func Rejected(code, info string) error {
	return services.NewGatewayError(utils.ErrGatewayRejected, code, info)
}
