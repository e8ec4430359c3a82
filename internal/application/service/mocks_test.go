package service

import (
	"context"
	"time"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/workflow"
)

// Mock repositories

type mockApplicationRepo struct {
	createFunc                 func(ctx context.Context, app *entity.Application) error
	getByIDFunc                func(ctx context.Context, id int64) (*entity.Application, error)
	getLiveByUserAndPolicyFunc func(ctx context.Context, userID, policyID int64) (*entity.Application, error)
	updateDecisionFunc         func(ctx context.Context, app *entity.Application, fromStatus entity.ApplicationStatus) error
	listByStatusFunc           func(ctx context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.Application, error)

	updateDecisionCalls int
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *entity.Application) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, app)
	}
	app.ID = 1
	return nil
}

func (m *mockApplicationRepo) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Application{ID: id, UserID: 7, PolicyID: 1, Status: entity.ApplicationPendingApproval}, nil
}

func (m *mockApplicationRepo) GetLiveByUserAndPolicy(ctx context.Context, userID, policyID int64) (*entity.Application, error) {
	if m.getLiveByUserAndPolicyFunc != nil {
		return m.getLiveByUserAndPolicyFunc(ctx, userID, policyID)
	}
	return nil, nil
}

func (m *mockApplicationRepo) UpdateDecision(ctx context.Context, app *entity.Application, fromStatus entity.ApplicationStatus) error {
	m.updateDecisionCalls++
	if m.updateDecisionFunc != nil {
		return m.updateDecisionFunc(ctx, app, fromStatus)
	}
	return nil
}

func (m *mockApplicationRepo) ListByStatus(ctx context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.Application, error) {
	if m.listByStatusFunc != nil {
		return m.listByStatusFunc(ctx, status, limit, offset)
	}
	return []*entity.Application{}, nil
}

type mockClaimRepo struct {
	createFunc              func(ctx context.Context, claim *entity.Claim) error
	getByIDFunc             func(ctx context.Context, id int64) (*entity.Claim, error)
	getByClaimNumberFunc    func(ctx context.Context, number string) (*entity.Claim, error)
	updateDecisionFunc      func(ctx context.Context, claim *entity.Claim, fromStatus entity.ClaimStatus) error
	listByStatusFunc        func(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error)
	listByApplicationIDFunc func(ctx context.Context, applicationID int64) ([]*entity.Claim, error)

	updateDecisionCalls int
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *entity.Claim) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, claim)
	}
	claim.ID = 1
	return nil
}

func (m *mockClaimRepo) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Claim{ID: id, ClaimNumber: "CLM-TEST-0001", ApplicationID: 1, SubmittedBy: 7, Status: entity.ClaimUnderReview}, nil
}

func (m *mockClaimRepo) GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error) {
	if m.getByClaimNumberFunc != nil {
		return m.getByClaimNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *mockClaimRepo) UpdateDecision(ctx context.Context, claim *entity.Claim, fromStatus entity.ClaimStatus) error {
	m.updateDecisionCalls++
	if m.updateDecisionFunc != nil {
		return m.updateDecisionFunc(ctx, claim, fromStatus)
	}
	return nil
}

func (m *mockClaimRepo) ListByStatus(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error) {
	if m.listByStatusFunc != nil {
		return m.listByStatusFunc(ctx, status, limit, offset)
	}
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListByApplicationID(ctx context.Context, applicationID int64) ([]*entity.Claim, error) {
	if m.listByApplicationIDFunc != nil {
		return m.listByApplicationIDFunc(ctx, applicationID)
	}
	return []*entity.Claim{}, nil
}

type mockPaymentRepo struct {
	createFunc                func(ctx context.Context, payment *entity.Payment) error
	getByIDFunc               func(ctx context.Context, id int64) (*entity.Payment, error)
	getByEntityTransitionFunc func(ctx context.Context, entityKind string, entityID int64, transitionRef string) (*entity.Payment, error)
	listByClaimIDFunc         func(ctx context.Context, claimID int64) ([]*entity.Payment, error)
	listByApplicationIDFunc   func(ctx context.Context, applicationID int64) ([]*entity.Payment, error)
	markCompletedFunc         func(ctx context.Context, id int64, paidAt time.Time) error
	markFailedFunc            func(ctx context.Context, id int64, reason string) error

	created []*entity.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, payment)
	}
	payment.ID = int64(len(m.created) + 1)
	m.created = append(m.created, payment)
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockPaymentRepo) GetByEntityTransition(ctx context.Context, entityKind string, entityID int64, transitionRef string) (*entity.Payment, error) {
	if m.getByEntityTransitionFunc != nil {
		return m.getByEntityTransitionFunc(ctx, entityKind, entityID, transitionRef)
	}
	return nil, nil
}

func (m *mockPaymentRepo) ListByClaimID(ctx context.Context, claimID int64) ([]*entity.Payment, error) {
	if m.listByClaimIDFunc != nil {
		return m.listByClaimIDFunc(ctx, claimID)
	}
	return []*entity.Payment{}, nil
}

func (m *mockPaymentRepo) ListByApplicationID(ctx context.Context, applicationID int64) ([]*entity.Payment, error) {
	if m.listByApplicationIDFunc != nil {
		return m.listByApplicationIDFunc(ctx, applicationID)
	}
	return []*entity.Payment{}, nil
}

func (m *mockPaymentRepo) MarkCompleted(ctx context.Context, id int64, paidAt time.Time) error {
	if m.markCompletedFunc != nil {
		return m.markCompletedFunc(ctx, id, paidAt)
	}
	return nil
}

func (m *mockPaymentRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	if m.markFailedFunc != nil {
		return m.markFailedFunc(ctx, id, reason)
	}
	return nil
}

type mockNotificationRepo struct {
	createFunc     func(ctx context.Context, n *entity.Notification) (bool, error)
	markSentFunc   func(ctx context.Context, id int64, at time.Time) error
	markFailedFunc func(ctx context.Context, id int64, errMsg string) error

	created []*entity.Notification
	failed  []int64
	sent    []int64
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) (bool, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return true, nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	m.sent = append(m.sent, id)
	if m.markSentFunc != nil {
		return m.markSentFunc(ctx, id, at)
	}
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	m.failed = append(m.failed, id)
	if m.markFailedFunc != nil {
		return m.markFailedFunc(ctx, id, errMsg)
	}
	return nil
}

func (m *mockNotificationRepo) ListByEntity(ctx context.Context, entityKind string, entityID int64) ([]*entity.Notification, error) {
	return []*entity.Notification{}, nil
}

type mockPolicyRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.Policy, error)
}

func (m *mockPolicyRepo) GetByID(ctx context.Context, id int64) (*entity.Policy, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Policy{ID: id, Name: "Basic Health", MonthlyPremium: 50_00}, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// Mock externals

type mockScorer struct {
	scoreFunc func(ctx context.Context, kind port.ScoringKind, payload port.ScoringPayload) entity.ScoreResult
}

func (m *mockScorer) Score(ctx context.Context, kind port.ScoringKind, payload port.ScoringPayload) entity.ScoreResult {
	if m.scoreFunc != nil {
		return m.scoreFunc(ctx, kind, payload)
	}
	return entity.ScoreResult{Confidence: 90, Fraud: 5, Risk: 10, Source: entity.ScoreSourceAI, Raw: `{"confidence":90}`}
}

type mockPublisher struct {
	publishFunc func(ctx context.Context, channel string, event entity.NotificationEvent) error

	published []string
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event entity.NotificationEvent) error {
	m.published = append(m.published, channel)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, channel, event)
	}
	return nil
}

type mockIDGen struct{}

func (m *mockIDGen) ClaimNumber() string                 { return "CLM-TEST-0001" }
func (m *mockIDGen) TransactionRef(prefix string) string { return prefix + "-TX-0001" }

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time {
	if m.now.IsZero() {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return m.now
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// Mock collaborating services

type mockDispatcher struct {
	applyFunc func(ctx context.Context, transition workflow.Transition, effects Effects) *EffectOutcome

	calls []dispatchCall
}

type dispatchCall struct {
	transition workflow.Transition
	effects    Effects
}

func (m *mockDispatcher) Apply(ctx context.Context, transition workflow.Transition, effects Effects) *EffectOutcome {
	m.calls = append(m.calls, dispatchCall{transition: transition, effects: effects})
	if m.applyFunc != nil {
		return m.applyFunc(ctx, transition, effects)
	}
	outcome := &EffectOutcome{}
	if effects.Payment != nil {
		id := int64(len(m.calls))
		outcome.PaymentID = &id
		outcome.PaymentCreated = true
		outcome.PaymentStatus = entity.PaymentCompleted
		if effects.Payment.Pending {
			outcome.PaymentStatus = entity.PaymentPending
		}
	}
	return outcome
}

type mockNotificationService struct {
	applicationEvents []string
	claimEvents       []string
}

func (m *mockNotificationService) NotifyApplication(ctx context.Context, app *entity.Application, eventType string) {
	m.applicationEvents = append(m.applicationEvents, eventType)
}

func (m *mockNotificationService) NotifyClaim(ctx context.Context, claim *entity.Claim, eventType string) {
	m.claimEvents = append(m.claimEvents, eventType)
}
