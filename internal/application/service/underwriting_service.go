package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/scoring"
	"github.com/insurhub/underwriter/internal/domain/workflow"
)

// policyTermYears is the coverage term granted on activation.
const policyTermYears = 1

// ApplicationRequest carries a user's policy application.
type ApplicationRequest struct {
	PolicyID          int64  `json:"policy_id"`
	Age               int    `json:"age"`
	Occupation        string `json:"occupation"`
	MedicalHistory    string `json:"medical_history"`
	AnnualSalaryCents int64  `json:"annual_salary_cents"`
}

// Validate rejects malformed requests before any AI call is made.
func (r ApplicationRequest) Validate() error {
	if r.PolicyID <= 0 {
		return fmt.Errorf("%w: policy_id is required", entity.ErrValidation)
	}
	if r.Age <= 0 {
		return fmt.Errorf("%w: age is required", entity.ErrValidation)
	}
	if r.AnnualSalaryCents < 0 {
		return fmt.Errorf("%w: annual_salary_cents must not be negative", entity.ErrValidation)
	}
	return nil
}

// UnderwritingService drives the application workflow: score, route,
// persist, dispatch effects.
type UnderwritingService interface {
	SubmitApplication(ctx context.Context, userID int64, req ApplicationRequest) (*entity.Application, error)
	Decide(ctx context.Context, applicationID int64, decision workflow.Decision, notes string) (*entity.Application, error)
	GetByID(ctx context.Context, id int64) (*entity.Application, error)
	ListPending(ctx context.Context, limit, offset int) ([]*entity.Application, error)
}

type underwritingServiceImpl struct {
	applicationRepo port.ApplicationRepository
	policyRepo      port.PolicyRepository
	scorer          port.AIScorer
	dispatcher      EffectDispatcher
	lease           *EntityLease
	thresholds      scoring.Thresholds
	clock           port.Clock
	logger          Logger
}

// NewUnderwritingService creates a new UnderwritingService
func NewUnderwritingService(
	applicationRepo port.ApplicationRepository,
	policyRepo port.PolicyRepository,
	scorer port.AIScorer,
	dispatcher EffectDispatcher,
	lease *EntityLease,
	thresholds scoring.Thresholds,
	clock port.Clock,
	logger Logger,
) UnderwritingService {
	return &underwritingServiceImpl{
		applicationRepo: applicationRepo,
		policyRepo:      policyRepo,
		scorer:          scorer,
		dispatcher:      dispatcher,
		lease:           lease,
		thresholds:      thresholds,
		clock:           clock,
		logger:          logger,
	}
}

// SubmitApplication validates, scores and routes a new application. The
// call always completes with a definite state: AI outage degrades to the
// fallback score, which fails the risk gate and parks the application for
// admin review.
func (s *underwritingServiceImpl) SubmitApplication(ctx context.Context, userID int64, req ApplicationRequest) (*entity.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	policy, err := s.policyRepo.GetByID(ctx, req.PolicyID)
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: policy %d", entity.ErrNotFound, req.PolicyID)
	}

	existing, err := s.applicationRepo.GetLiveByUserAndPolicy(ctx, userID, req.PolicyID)
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if existing != nil {
		return nil, entity.ErrDuplicateApplication
	}

	app := &entity.Application{
		UserID:         userID,
		PolicyID:       req.PolicyID,
		Status:         entity.ApplicationApplied,
		Age:            req.Age,
		Occupation:     req.Occupation,
		MedicalHistory: req.MedicalHistory,
		AnnualSalary:   req.AnnualSalaryCents,
		MonthlyPremium: policy.MonthlyPremium,
	}
	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	release := s.lease.Acquire(entity.KindApplication, app.ID)
	defer release()

	result := s.scorer.Score(ctx, port.ApplicationScoring, port.ScoringPayload{
		Age:            req.Age,
		Occupation:     req.Occupation,
		MedicalHistory: req.MedicalHistory,
	})

	// A cancelled submission must not apply the score it raced against.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	score := scoring.NormalizeApplication(result, scoring.ApplicationContext{
		Age:        req.Age,
		Occupation: req.Occupation,
	})

	outcome := workflow.RouteApplication(workflow.ApplicationFacts{
		Risk:                score.Risk,
		RequiresApproval:    policy.RequiresApproval,
		Age:                 req.Age,
		MonthlyPremiumCents: policy.MonthlyPremium,
		AnnualSalaryCents:   req.AnnualSalaryCents,
	}, s.thresholds)

	transition, err := workflow.ApplicationTransition(app.ID, app.Status, outcome.NextState)
	if err != nil {
		return nil, err
	}

	app.RiskScore = &score.Risk
	app.AIAssessment = result.Raw
	if outcome.AutoApproved {
		s.activate(app)
		app.AppendNote(fmt.Sprintf("Auto-approved: risk score %.1f", score.Risk))
	} else {
		app.Status = entity.ApplicationPendingApproval
		app.AppendNote("Pending admin review: " + strings.Join(outcome.Reasons, " "))
	}

	if err := s.applicationRepo.UpdateDecision(ctx, app, entity.ApplicationApplied); err != nil {
		return nil, fmt.Errorf("persist application decision: %w", err)
	}

	s.logger.Info("Application adjudicated",
		"application_id", app.ID,
		"user_id", userID,
		"policy_id", req.PolicyID,
		"risk_score", score.Risk,
		"score_source", result.Source,
		"status", app.Status,
	)

	s.dispatchApplicationEffects(ctx, app, policy, transition, outcome.DispatchPayment, outcome.AutoApproved)

	return app, nil
}

// Decide applies an admin decision to an application awaiting approval.
// Repeating the same decision on an already-decided application is a no-op.
func (s *underwritingServiceImpl) Decide(ctx context.Context, applicationID int64, decision workflow.Decision, notes string) (*entity.Application, error) {
	if !decision.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", entity.ErrValidation, decision)
	}

	release := s.lease.Acquire(entity.KindApplication, applicationID)
	defer release()

	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("%w: application %d", entity.ErrNotFound, applicationID)
	}

	target := entity.ApplicationRejected
	if decision == workflow.DecisionApprove {
		target = entity.ApplicationActive
	}

	if app.Status == target {
		return app, nil
	}
	if app.IsDecided() {
		return nil, fmt.Errorf("%w: application %d is %s", workflow.ErrAlreadyDecided, applicationID, app.Status)
	}

	transition, err := workflow.ApplicationTransition(app.ID, app.Status, target)
	if err != nil {
		return nil, err
	}

	fromStatus := app.Status
	if decision == workflow.DecisionApprove {
		s.activate(app)
		if notes == "" {
			notes = "Approved by admin"
		}
	} else {
		app.Status = entity.ApplicationRejected
		now := s.clock.Now()
		app.DecidedAt = &now
		if notes == "" {
			notes = "Rejected by admin"
		}
	}
	app.AppendNote(notes)

	if err := s.applicationRepo.UpdateDecision(ctx, app, fromStatus); err != nil {
		return nil, fmt.Errorf("persist admin decision: %w", err)
	}

	s.logger.Info("Admin decided application",
		"application_id", app.ID,
		"decision", decision,
		"status", app.Status,
	)

	policy, err := s.policyRepo.GetByID(ctx, app.PolicyID)
	if err != nil || policy == nil {
		// Effects still need a policy name for the premium description;
		// degrade to an id-only label rather than failing the decision.
		policy = &entity.Policy{ID: app.PolicyID, Name: fmt.Sprintf("policy %d", app.PolicyID), MonthlyPremium: app.MonthlyPremium}
	}

	dispatchPayment := decision == workflow.DecisionApprove
	s.dispatchApplicationEffects(ctx, app, policy, transition, dispatchPayment, false)

	return app, nil
}

// GetByID returns a single application.
func (s *underwritingServiceImpl) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("%w: application %d", entity.ErrNotFound, id)
	}
	return app, nil
}

// ListPending returns applications awaiting an admin decision.
func (s *underwritingServiceImpl) ListPending(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	return s.applicationRepo.ListByStatus(ctx, entity.ApplicationPendingApproval, limit, offset)
}

// activate moves the application into ACTIVE and stamps the coverage term.
func (s *underwritingServiceImpl) activate(app *entity.Application) {
	now := s.clock.Now()
	start := now
	end := start.AddDate(policyTermYears, 0, 0)

	app.Status = entity.ApplicationActive
	app.StartDate = &start
	app.EndDate = &end
	app.DecidedAt = &now
}

func (s *underwritingServiceImpl) dispatchApplicationEffects(
	ctx context.Context,
	app *entity.Application,
	policy *entity.Policy,
	transition workflow.Transition,
	dispatchPayment bool,
	autoApproved bool,
) {
	effects := Effects{}

	if dispatchPayment {
		effects.Payment = &PaymentEffect{
			Type:        entity.PaymentTypePremium,
			AmountCents: policy.MonthlyPremium,
			Description: premiumDescription(policy.Name),
			Pending:     true,
		}
	}

	effects.Notification = &NotificationEffect{
		EventType:   applicationEventType(app.Status, autoApproved),
		Application: app,
	}

	outcome := s.dispatcher.Apply(ctx, transition, effects)
	s.recordAnnotations(ctx, app, outcome.Annotations)
}

// recordAnnotations appends dispatcher-level failures to the approval notes.
func (s *underwritingServiceImpl) recordAnnotations(ctx context.Context, app *entity.Application, annotations []string) {
	if len(annotations) == 0 {
		return
	}
	for _, a := range annotations {
		app.AppendNote(a)
	}
	if err := s.applicationRepo.UpdateDecision(ctx, app, app.Status); err != nil {
		s.logger.Error("Failed to record effect annotations", "error", err, "application_id", app.ID)
	}
}

func applicationEventType(status entity.ApplicationStatus, autoApproved bool) string {
	switch status {
	case entity.ApplicationActive:
		if autoApproved {
			return entity.EventPolicyAutoApproved
		}
		return entity.EventPolicyApproved
	case entity.ApplicationRejected:
		return entity.EventPolicyRejected
	default:
		return entity.EventPolicyPendingApproval
	}
}
