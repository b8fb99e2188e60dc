package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"walletpay/internal/config"
	"walletpay/internal/models/db_models"
	"walletpay/internal/models/request_models"
	"walletpay/internal/models/response_models"
	"walletpay/internal/repositories"
	"walletpay/pkg/utils"
)

type SubscriptionService interface {
	// Setup registers a member, saves the card and takes the first charge.
	// Remote steps already done are undone when a later one fails.
	Setup(ctx context.Context, req request_models.RecurringSetupRequest) (*response_models.RecurringSetupResponse, error)
	Charge(ctx context.Context, req request_models.RecurringChargeRequest) (*response_models.RecurringChargeResponse, error)
	GetSubscription(ctx context.Context, id string) (*response_models.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, query request_models.ListQuery) (*response_models.PageResponse[response_models.SubscriptionResponse], error)
}

type subscriptionService struct {
	cfg     *config.Config
	repo    repositories.SubscriptionRepository
	gateway GatewayClient
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

func NewSubscriptionService(
	cfg *config.Config,
	repo repositories.SubscriptionRepository,
	gateway GatewayClient,
	logger *zap.Logger,
	metrics *Metrics,
) SubscriptionService {
	return NewSubscriptionServiceWithClock(cfg, repo, gateway, logger, metrics, utils.NowUTC)
}

func NewSubscriptionServiceWithClock(
	cfg *config.Config,
	repo repositories.SubscriptionRepository,
	gateway GatewayClient,
	logger *zap.Logger,
	metrics *Metrics,
	now func() time.Time,
) SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &subscriptionService{
		cfg:     cfg,
		repo:    repo,
		gateway: gateway,
		logger:  logger.Named("recurring"),
		metrics: metrics,
		now:     now,
	}
}

// undoStep is one compensating action of the setup saga.
type undoStep struct {
	name string
	run  func(ctx context.Context) error
}

type setupSaga struct {
	steps []undoStep
}

func (s *setupSaga) push(name string, run func(ctx context.Context) error) {
	s.steps = append(s.steps, undoStep{name: name, run: run})
}

// rollback runs every undo step in reverse order and reports whether all of
// them succeeded. Nil means there was nothing to undo.
func (s *setupSaga) rollback(ctx context.Context, log *zap.Logger) *bool {
	if len(s.steps) == 0 {
		return nil
	}
	ok := true
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.run(ctx); err != nil {
			log.Error("setup rollback step failed", zap.String("step", step.name), zap.Error(err))
			ok = false
			continue
		}
		log.Info("setup rollback step done", zap.String("step", step.name))
	}
	return &ok
}

func orderIDFor(sub *db_models.Subscription, at time.Time) string {
	return fmt.Sprintf("ORDER_%s_%d", sub.ID, at.Unix())
}

func (s *subscriptionService) Setup(ctx context.Context, req request_models.RecurringSetupRequest) (*response_models.RecurringSetupResponse, error) {
	req.Normalize()

	cycle, ok := db_models.ParseBillingCycle(req.BillingCycle)
	if !ok {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "VALIDATION_ERROR", "Billing cycle must be one of: monthly, yearly, weekly, daily")
	}

	now := s.now()
	next := cycle.NextBillingDate(now)
	sub := &db_models.Subscription{
		Amount:          *req.Amount,
		Currency:        req.Currency,
		Status:          db_models.SubStatusActive,
		BillingCycle:    cycle,
		NextBillingDate: &next,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, utils.WrapDatabase(err)
	}

	log := s.logger.With(zap.String("subscription_id", sub.ID.String()))
	resp, err := s.runSetup(ctx, sub, req.Token, log)
	s.metrics.incFlow("recurring_setup", string(sub.Status))
	return resp, err
}

func (s *subscriptionService) runSetup(ctx context.Context, sub *db_models.Subscription, token string, log *zap.Logger) (*response_models.RecurringSetupResponse, error) {
	saga := &setupSaga{}

	if err := gatewayReady(s.cfg.Gateway); err != nil {
		return s.abortSetup(ctx, sub, saga, err, log)
	}
	if err := applePayReady(s.cfg.ApplePay); err != nil {
		return s.abortSetup(ctx, sub, saga, err, log)
	}

	memberID := "MEMBER_" + sub.ID.String()
	if _, err := s.gateway.RegisterMember(ctx, memberID, "Subscription "+sub.ID.String()); err != nil {
		return s.abortSetup(ctx, sub, saga, withDefaultInfo(err, "Failed to register member"), log)
	}
	saga.push("delete_member", func(ctx context.Context) error {
		_, err := s.gateway.DeleteMember(ctx, memberID)
		return err
	})
	sub.MemberID = memberID

	card, err := s.gateway.SaveCard(ctx, memberID, token, true)
	if err != nil {
		return s.abortSetup(ctx, sub, saga, withDefaultInfo(err, "Failed to save payment method"), log)
	}
	cardID := card.CardID()
	if cardID == "" {
		missing := utils.NewAppError(utils.ErrMissingGatewayReference, "CARD_ID_MISSING", "Failed to get Card ID")
		return s.abortSetup(ctx, sub, saga, missing, log)
	}
	saga.push("delete_card", func(ctx context.Context) error {
		_, err := s.gateway.DeleteCard(ctx, memberID, cardID)
		return err
	})
	sub.CardID = cardID
	sub.GatewayResponse = card.Snapshot()

	if err := s.repo.Update(ctx, sub); err != nil {
		log.Error("persist saved card", zap.Error(err))
		return s.abortSetup(ctx, sub, saga, utils.WrapDatabase(err), log)
	}

	chargedAt := s.now()
	orderID := orderIDFor(sub, chargedAt)
	charge, err := s.gateway.ExecuteRecurring(ctx, orderID, memberID, cardID, utils.EncodeAmount(sub.Amount, sub.Currency), sub.Currency)
	if err == nil && !charge.HasStatus() {
		err = NewGatewayError(utils.ErrGatewayRejected, "CHARGE_ERROR", "Failed to process initial charge")
	}
	if err != nil {
		return s.abortSetup(ctx, sub, saga, withDefaultInfo(err, "Failed to process initial charge"), log)
	}

	sub.LastBillingDate = &chargedAt
	sub.GatewayResponse = charge.Snapshot()
	if err := s.repo.Update(context.WithoutCancel(ctx), sub); err != nil {
		// The customer has been charged; keep the remote member and card.
		log.Error("persist initial charge", zap.String("order_id", orderID), zap.Error(err))
		return nil, utils.WrapDatabase(err)
	}

	log.Info("subscription set up", zap.String("order_id", orderID), zap.String("billing_cycle", string(sub.BillingCycle)))
	return &response_models.RecurringSetupResponse{
		SubscriptionID:  sub.ID.String(),
		Status:          string(sub.Status),
		MemberID:        memberID,
		CardID:          cardID,
		Amount:          sub.Amount.String(),
		Currency:        sub.Currency,
		BillingCycle:    string(sub.BillingCycle),
		NextBillingDate: utils.FormatRFC3339Ptr(sub.NextBillingDate),
	}, nil
}

// abortSetup undoes remote registration, cancels the subscription and returns
// cause unchanged.
func (s *subscriptionService) abortSetup(ctx context.Context, sub *db_models.Subscription, saga *setupSaga, cause error, log *zap.Logger) (*response_models.RecurringSetupResponse, error) {
	compCtx := context.WithoutCancel(ctx)
	log.Warn("subscription setup failed", zap.Error(cause))

	rolledBack := saga.rollback(compCtx, log)

	sub.Status = db_models.SubStatusCancelled
	if snap := snapshotOf(cause); snap != nil {
		sub.GatewayResponse = snap
	}
	if err := s.repo.Update(compCtx, sub); err != nil {
		log.Error("persist cancelled subscription", zap.Error(err))
	}

	_, info := gatewayFailure(cause, "", publicMessage(cause))
	return &response_models.RecurringSetupResponse{
		SubscriptionID:    sub.ID.String(),
		Status:            string(sub.Status),
		Amount:            sub.Amount.String(),
		Currency:          sub.Currency,
		BillingCycle:      string(sub.BillingCycle),
		Error:             info,
		RollbackSucceeded: rolledBack,
	}, cause
}

func (s *subscriptionService) Charge(ctx context.Context, req request_models.RecurringChargeRequest) (*response_models.RecurringChargeResponse, error) {
	id, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "VALIDATION_ERROR", "Invalid subscription id")
	}

	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	if !sub.CanCharge() {
		return nil, notActive(sub)
	}

	now := s.now()
	acquired, err := s.repo.AcquireChargeLease(ctx, id, now, now.Add(s.cfg.ChargeLeaseTTL))
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}
	if !acquired {
		// Lost the race: either the row left active or a charge is running.
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, utils.WrapDatabase(err)
		}
		if current != nil && !current.CanCharge() {
			return nil, notActive(current)
		}
		return nil, utils.NewAppError(utils.ErrChargeInProgress, "CHARGE_IN_PROGRESS", "A charge for this subscription is already in progress")
	}

	log := s.logger.With(zap.String("subscription_id", sub.ID.String()))
	resp, err := s.charge(ctx, sub, req, now, log)
	status := "charged"
	if err != nil {
		status = "failed"
	}
	s.metrics.incFlow("recurring_charge", status)
	return resp, err
}

func (s *subscriptionService) charge(ctx context.Context, sub *db_models.Subscription, req request_models.RecurringChargeRequest, now time.Time, log *zap.Logger) (*response_models.RecurringChargeResponse, error) {
	persistCtx := context.WithoutCancel(ctx)
	orderID := orderIDFor(sub, now)

	charge, err := s.gateway.ExecuteRecurring(ctx, orderID, sub.MemberID, sub.CardID, utils.EncodeAmount(*req.Amount, sub.Currency), sub.Currency)
	if err == nil && !charge.HasStatus() {
		err = NewGatewayError(utils.ErrGatewayRejected, "CHARGE_ERROR", "Failed to process recurring charge")
	}
	if err != nil {
		log.Warn("recurring charge failed", zap.String("order_id", orderID), zap.Error(err))
		if releaseErr := s.repo.ReleaseChargeLease(persistCtx, sub.ID); releaseErr != nil {
			log.Error("release charge lease", zap.Error(releaseErr))
		}
		return nil, withDefaultInfo(err, "Failed to process recurring charge")
	}

	chargedAt := s.now()
	next := sub.BillingCycle.NextBillingDate(chargedAt)
	if err := s.repo.CompleteCharge(persistCtx, sub.ID, chargedAt, next, charge.Snapshot()); err != nil {
		log.Error("persist recurring charge", zap.String("order_id", orderID), zap.Error(err))
		return nil, utils.WrapDatabase(err)
	}

	log.Info("recurring charge succeeded", zap.String("order_id", orderID))
	return &response_models.RecurringChargeResponse{
		SubscriptionID:  sub.ID.String(),
		Status:          "charged",
		Amount:          req.Amount.String(),
		Currency:        sub.Currency,
		OrderID:         orderID,
		NextBillingDate: utils.FormatRFC3339(next),
	}, nil
}

func notActive(sub *db_models.Subscription) error {
	return utils.NewAppError(utils.ErrSubscriptionNotActive, "SUBSCRIPTION_NOT_ACTIVE",
		fmt.Sprintf("Subscription is %s, cannot process charge", sub.Status))
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*response_models.SubscriptionResponse, error) {
	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "VALIDATION_ERROR", "Invalid subscription id")
	}
	sub, err := s.repo.FindByID(ctx, subID)
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	resp := toSubscriptionResponse(sub)
	return &resp, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, query request_models.ListQuery) (*response_models.PageResponse[response_models.SubscriptionResponse], error) {
	if err := checkPage(query.Page, query.PageSize); err != nil {
		return nil, err
	}
	subs, total, err := s.repo.List(ctx, repositories.SubscriptionFilter{
		Status:       strings.ToLower(query.Status),
		Currency:     strings.ToUpper(query.Currency),
		BillingCycle: strings.ToLower(query.BillingCycle),
		Page:         query.Page,
		PageSize:     query.PageSize,
	})
	if err != nil {
		return nil, utils.WrapDatabase(err)
	}

	items := make([]response_models.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		items = append(items, toSubscriptionResponse(&subs[i]))
	}
	return &response_models.PageResponse[response_models.SubscriptionResponse]{
		Items:    items,
		Page:     query.Page,
		PageSize: query.PageSize,
		Total:    total,
	}, nil
}
