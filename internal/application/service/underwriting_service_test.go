package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/scoring"
	"github.com/insurhub/underwriter/internal/domain/workflow"
)

func newUnderwritingService(
	appRepo *mockApplicationRepo,
	policyRepo *mockPolicyRepo,
	scorer *mockScorer,
	dispatcher *mockDispatcher,
) UnderwritingService {
	return NewUnderwritingService(
		appRepo,
		policyRepo,
		scorer,
		dispatcher,
		NewEntityLease(),
		scoring.DefaultThresholds(),
		&mockClock{},
		&mockLogger{},
	)
}

func goodApplicationRequest() ApplicationRequest {
	return ApplicationRequest{
		PolicyID:          1,
		Age:               30,
		Occupation:        "nurse",
		AnnualSalaryCents: 600_000_00,
	}
}

func riskScorer(risk float64) *mockScorer {
	return &mockScorer{
		scoreFunc: func(ctx context.Context, kind port.ScoringKind, payload port.ScoringPayload) entity.ScoreResult {
			return entity.ScoreResult{Confidence: 90, Fraud: 5, Risk: risk, Source: entity.ScoreSourceAI, Raw: `{"ok":true}`}
		},
	}
}

func fallbackScorer() *mockScorer {
	return &mockScorer{
		scoreFunc: func(ctx context.Context, kind port.ScoringKind, payload port.ScoringPayload) entity.ScoreResult {
			return entity.FallbackScoreResult("")
		},
	}
}

func TestSubmitApplication_AutoApproved(t *testing.T) {
	appRepo := &mockApplicationRepo{}
	dispatcher := &mockDispatcher{}

	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), dispatcher)

	app, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if err != nil {
		t.Fatalf("SubmitApplication() error = %v", err)
	}

	if app.Status != entity.ApplicationActive {
		t.Errorf("status = %s, want ACTIVE", app.Status)
	}
	if app.StartDate == nil || app.EndDate == nil || app.DecidedAt == nil {
		t.Error("activation must stamp start, end and decision dates")
	}
	if app.RiskScore == nil || *app.RiskScore != 10 {
		t.Errorf("risk score = %v, want 10", app.RiskScore)
	}
	if !strings.Contains(app.ApprovalNotes, "Auto-approved") {
		t.Errorf("approval notes = %q, want auto-approval note", app.ApprovalNotes)
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", len(dispatcher.calls))
	}
	call := dispatcher.calls[0]
	if call.transition.Ref() != "APPLIED->ACTIVE" {
		t.Errorf("transition = %s, want APPLIED->ACTIVE", call.transition.Ref())
	}
	if call.effects.Payment == nil || !call.effects.Payment.Pending || call.effects.Payment.Type != entity.PaymentTypePremium {
		t.Errorf("payment effect = %+v, want pending premium", call.effects.Payment)
	}
	if call.effects.Notification == nil || call.effects.Notification.EventType != entity.EventPolicyAutoApproved {
		t.Errorf("notification effect = %+v, want POLICY_AUTO_APPROVED", call.effects.Notification)
	}
}

func TestSubmitApplication_HighRiskGoesToAdmin(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newUnderwritingService(&mockApplicationRepo{}, &mockPolicyRepo{}, riskScorer(55), dispatcher)

	app, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if err != nil {
		t.Fatalf("SubmitApplication() error = %v", err)
	}

	if app.Status != entity.ApplicationPendingApproval {
		t.Errorf("status = %s, want PENDING_APPROVAL", app.Status)
	}
	if app.StartDate != nil {
		t.Error("pending application must not have a coverage start date")
	}
	if !strings.Contains(app.ApprovalNotes, "Risk score") {
		t.Errorf("approval notes = %q, want risk reason", app.ApprovalNotes)
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", len(dispatcher.calls))
	}
	call := dispatcher.calls[0]
	if call.effects.Payment != nil {
		t.Error("no payment may be dispatched before approval")
	}
	if call.effects.Notification.EventType != entity.EventPolicyPendingApproval {
		t.Errorf("event = %s, want POLICY_PENDING_APPROVAL", call.effects.Notification.EventType)
	}
}

func TestSubmitApplication_PolicyGatesBlockAutoApproval(t *testing.T) {
	tests := []struct {
		name   string
		policy *entity.Policy
		req    ApplicationRequest
		reason string
	}{
		{
			name:   "policy requires manual approval",
			policy: &entity.Policy{ID: 1, Name: "Premium Life", MonthlyPremium: 50_00, RequiresApproval: true},
			req:    goodApplicationRequest(),
			reason: "manual approval",
		},
		{
			name:   "applicant too old",
			policy: &entity.Policy{ID: 1, Name: "Basic Health", MonthlyPremium: 50_00},
			req: ApplicationRequest{
				PolicyID:          1,
				Age:               70,
				AnnualSalaryCents: 600_000_00,
			},
			reason: "Age outside auto-approval range",
		},
		{
			name:   "premium exceeds monthly income",
			policy: &entity.Policy{ID: 1, Name: "Basic Health", MonthlyPremium: 2_000_00},
			req: ApplicationRequest{
				PolicyID:          1,
				Age:               30,
				AnnualSalaryCents: 12_000_00,
			},
			reason: "Premium exceeds monthly income",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policyRepo := &mockPolicyRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Policy, error) {
					return tt.policy, nil
				},
			}
			svc := newUnderwritingService(&mockApplicationRepo{}, policyRepo, riskScorer(10), &mockDispatcher{})

			app, err := svc.SubmitApplication(context.Background(), 7, tt.req)
			if err != nil {
				t.Fatalf("SubmitApplication() error = %v", err)
			}
			if app.Status != entity.ApplicationPendingApproval {
				t.Errorf("status = %s, want PENDING_APPROVAL", app.Status)
			}
			if !strings.Contains(app.ApprovalNotes, tt.reason) {
				t.Errorf("approval notes = %q, want reason containing %q", app.ApprovalNotes, tt.reason)
			}
		})
	}
}

func TestSubmitApplication_FallbackNeverAutoApproves(t *testing.T) {
	svc := newUnderwritingService(&mockApplicationRepo{}, &mockPolicyRepo{}, fallbackScorer(), &mockDispatcher{})

	app, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if err != nil {
		t.Fatalf("SubmitApplication() error = %v", err)
	}
	if app.Status != entity.ApplicationPendingApproval {
		t.Errorf("status = %s, want PENDING_APPROVAL on fallback score", app.Status)
	}
	if app.RiskScore == nil || *app.RiskScore != entity.FallbackRisk {
		t.Errorf("risk score = %v, want fallback %v", app.RiskScore, entity.FallbackRisk)
	}
}

func TestSubmitApplication_DuplicateRejected(t *testing.T) {
	appRepo := &mockApplicationRepo{
		getLiveByUserAndPolicyFunc: func(ctx context.Context, userID, policyID int64) (*entity.Application, error) {
			return &entity.Application{ID: 99, UserID: userID, PolicyID: policyID, Status: entity.ApplicationActive}, nil
		},
	}
	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), &mockDispatcher{})

	_, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if !errors.Is(err, entity.ErrDuplicateApplication) {
		t.Errorf("error = %v, want ErrDuplicateApplication", err)
	}
}

// A concurrent submission can slip past the live-application lookup; the
// unique index then rejects the insert and the conflict surfaces as a
// duplicate.
func TestSubmitApplication_ConcurrentDuplicateRejectedOnInsert(t *testing.T) {
	appRepo := &mockApplicationRepo{
		createFunc: func(ctx context.Context, app *entity.Application) error {
			return fmt.Errorf("%w: user %d already holds a live application for policy %d",
				entity.ErrDuplicateApplication, app.UserID, app.PolicyID)
		},
	}
	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), &mockDispatcher{})

	_, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if !errors.Is(err, entity.ErrDuplicateApplication) {
		t.Errorf("error = %v, want ErrDuplicateApplication", err)
	}
}

func TestSubmitApplication_ValidationErrors(t *testing.T) {
	svc := newUnderwritingService(&mockApplicationRepo{}, &mockPolicyRepo{}, riskScorer(10), &mockDispatcher{})

	tests := []struct {
		name string
		req  ApplicationRequest
	}{
		{"missing policy", ApplicationRequest{Age: 30}},
		{"missing age", ApplicationRequest{PolicyID: 1}},
		{"negative salary", ApplicationRequest{PolicyID: 1, Age: 30, AnnualSalaryCents: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SubmitApplication(context.Background(), 7, tt.req); !errors.Is(err, entity.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmitApplication_PolicyNotFound(t *testing.T) {
	policyRepo := &mockPolicyRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Policy, error) {
			return nil, nil
		},
	}
	svc := newUnderwritingService(&mockApplicationRepo{}, policyRepo, riskScorer(10), &mockDispatcher{})

	_, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDecide_ApproveActivatesAndDispatchesPremium(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newUnderwritingService(&mockApplicationRepo{}, &mockPolicyRepo{}, riskScorer(10), dispatcher)

	app, err := svc.Decide(context.Background(), 1, workflow.DecisionApprove, "Verified income documents")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if app.Status != entity.ApplicationActive {
		t.Errorf("status = %s, want ACTIVE", app.Status)
	}
	if !strings.Contains(app.ApprovalNotes, "Verified income documents") {
		t.Errorf("approval notes = %q, want admin note", app.ApprovalNotes)
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", len(dispatcher.calls))
	}
	call := dispatcher.calls[0]
	if call.transition.Ref() != "PENDING_APPROVAL->ACTIVE" {
		t.Errorf("transition = %s, want PENDING_APPROVAL->ACTIVE", call.transition.Ref())
	}
	if call.effects.Payment == nil || call.effects.Payment.Type != entity.PaymentTypePremium {
		t.Errorf("payment effect = %+v, want premium", call.effects.Payment)
	}
	if call.effects.Notification.EventType != entity.EventPolicyApproved {
		t.Errorf("event = %s, want POLICY_APPROVED", call.effects.Notification.EventType)
	}
}

func TestDecide_RejectRecordsNotes(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newUnderwritingService(&mockApplicationRepo{}, &mockPolicyRepo{}, riskScorer(10), dispatcher)

	app, err := svc.Decide(context.Background(), 1, workflow.DecisionReject, "")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if app.Status != entity.ApplicationRejected {
		t.Errorf("status = %s, want REJECTED", app.Status)
	}
	if !strings.Contains(app.ApprovalNotes, "Rejected by admin") {
		t.Errorf("approval notes = %q, want default rejection note", app.ApprovalNotes)
	}
	if dispatcher.calls[0].effects.Payment != nil {
		t.Error("rejection must not dispatch a payment")
	}
	if dispatcher.calls[0].effects.Notification.EventType != entity.EventPolicyRejected {
		t.Errorf("event = %s, want POLICY_REJECTED", dispatcher.calls[0].effects.Notification.EventType)
	}
}

func TestDecide_RepeatedSameDecisionIsNoop(t *testing.T) {
	appRepo := &mockApplicationRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Application, error) {
			return &entity.Application{ID: id, Status: entity.ApplicationActive}, nil
		},
	}
	dispatcher := &mockDispatcher{}
	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), dispatcher)

	app, err := svc.Decide(context.Background(), 1, workflow.DecisionApprove, "")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if app.Status != entity.ApplicationActive {
		t.Errorf("status = %s, want ACTIVE", app.Status)
	}
	if appRepo.updateDecisionCalls != 0 {
		t.Errorf("updateDecision calls = %d, want 0 on repeat", appRepo.updateDecisionCalls)
	}
	if len(dispatcher.calls) != 0 {
		t.Errorf("dispatcher calls = %d, want 0 on repeat", len(dispatcher.calls))
	}
}

func TestDecide_ConflictingDecisionFails(t *testing.T) {
	appRepo := &mockApplicationRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Application, error) {
			return &entity.Application{ID: id, Status: entity.ApplicationRejected}, nil
		},
	}
	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), &mockDispatcher{})

	_, err := svc.Decide(context.Background(), 1, workflow.DecisionApprove, "")
	if !errors.Is(err, workflow.ErrAlreadyDecided) {
		t.Errorf("error = %v, want ErrAlreadyDecided", err)
	}
}

func TestDecide_InvalidDecision(t *testing.T) {
	svc := newUnderwritingService(&mockApplicationRepo{}, &mockPolicyRepo{}, riskScorer(10), &mockDispatcher{})

	_, err := svc.Decide(context.Background(), 1, workflow.Decision("MAYBE"), "")
	if !errors.Is(err, entity.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestDecide_LostRaceSurfacesConflict(t *testing.T) {
	appRepo := &mockApplicationRepo{
		updateDecisionFunc: func(ctx context.Context, app *entity.Application, fromStatus entity.ApplicationStatus) error {
			return entity.ErrConflict
		},
	}
	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), &mockDispatcher{})

	_, err := svc.Decide(context.Background(), 1, workflow.DecisionApprove, "")
	if !errors.Is(err, entity.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestSubmitApplication_DispatcherAnnotationsRecorded(t *testing.T) {
	appRepo := &mockApplicationRepo{}
	dispatcher := &mockDispatcher{
		applyFunc: func(ctx context.Context, transition workflow.Transition, effects Effects) *EffectOutcome {
			return &EffectOutcome{Annotations: []string{"payment processing failed: gateway timeout"}}
		},
	}
	svc := newUnderwritingService(appRepo, &mockPolicyRepo{}, riskScorer(10), dispatcher)

	app, err := svc.SubmitApplication(context.Background(), 7, goodApplicationRequest())
	if err != nil {
		t.Fatalf("SubmitApplication() error = %v", err)
	}
	if app.Status != entity.ApplicationActive {
		t.Errorf("status = %s, want ACTIVE despite payment failure", app.Status)
	}
	if !strings.Contains(app.ApprovalNotes, "payment processing failed") {
		t.Errorf("approval notes = %q, want payment failure annotation", app.ApprovalNotes)
	}
}
