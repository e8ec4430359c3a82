package service

import (
	"context"
	"fmt"
	"time"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/scoring"
	"github.com/insurhub/underwriter/internal/domain/workflow"
	"github.com/insurhub/underwriter/pkg/utils"
)

// ClaimRequest carries a user's claim submission against an active policy.
type ClaimRequest struct {
	ApplicationID       int64      `json:"application_id"`
	ClaimType           string     `json:"claim_type"`
	AmountCents         int64      `json:"amount_cents"`
	IncidentDate        *time.Time `json:"incident_date,omitempty"`
	IncidentLocation    string     `json:"incident_location,omitempty"`
	IncidentDescription string     `json:"incident_description"`
	SupportingDocuments []string   `json:"supporting_documents,omitempty"`
}

// Validate rejects malformed requests before any AI call is made.
func (r ClaimRequest) Validate() error {
	if r.ApplicationID <= 0 {
		return fmt.Errorf("%w: application_id is required", entity.ErrValidation)
	}
	if r.AmountCents <= 0 {
		return fmt.Errorf("%w: amount_cents must be positive", entity.ErrValidation)
	}
	if r.IncidentDescription == "" {
		return fmt.Errorf("%w: incident_description is required", entity.ErrValidation)
	}
	return nil
}

// ClaimService drives the claim workflow: score, route, persist, dispatch
// effects, and apply human decisions on top of the automated ones.
type ClaimService interface {
	SubmitClaim(ctx context.Context, userID int64, req ClaimRequest) (*entity.Claim, error)
	Decide(ctx context.Context, claimID int64, adminID int64, decision workflow.Decision, notes string) (*entity.Claim, error)
	Reanalyze(ctx context.Context, claimID int64) (*entity.Claim, error)
	MarkPaid(ctx context.Context, claimID int64) (*entity.Claim, error)
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error)
	ListPending(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error)
}

type claimServiceImpl struct {
	claimRepo       port.ClaimRepository
	applicationRepo port.ApplicationRepository
	paymentRepo     port.PaymentRepository
	scorer          port.AIScorer
	dispatcher      EffectDispatcher
	lease           *EntityLease
	thresholds      scoring.Thresholds
	idGen           port.IDGenerator
	clock           port.Clock
	logger          Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claimRepo port.ClaimRepository,
	applicationRepo port.ApplicationRepository,
	paymentRepo port.PaymentRepository,
	scorer port.AIScorer,
	dispatcher EffectDispatcher,
	lease *EntityLease,
	thresholds scoring.Thresholds,
	idGen port.IDGenerator,
	clock port.Clock,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claimRepo:       claimRepo,
		applicationRepo: applicationRepo,
		paymentRepo:     paymentRepo,
		scorer:          scorer,
		dispatcher:      dispatcher,
		lease:           lease,
		thresholds:      thresholds,
		idGen:           idGen,
		clock:           clock,
		logger:          logger,
	}
}

// SubmitClaim validates, scores and routes a new claim. The call always
// completes with a definite state: an AI outage degrades to the fallback
// score, which hard-routes the claim to UNDER_REVIEW regardless of the
// fallback values.
func (s *claimServiceImpl) SubmitClaim(ctx context.Context, userID int64, req ClaimRequest) (*entity.Claim, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app, err := s.applicationRepo.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("%w: application %d", entity.ErrNotFound, req.ApplicationID)
	}
	if app.Status != entity.ApplicationActive {
		return nil, fmt.Errorf("%w: application %d is %s", entity.ErrPolicyNotActive, app.ID, app.Status)
	}

	claim := &entity.Claim{
		ClaimNumber:         s.idGen.ClaimNumber(),
		ApplicationID:       req.ApplicationID,
		SubmittedBy:         userID,
		Status:              entity.ClaimSubmitted,
		ClaimType:           utils.SanitizeText(req.ClaimType),
		AmountCents:         req.AmountCents,
		IncidentDate:        req.IncidentDate,
		IncidentLocation:    utils.SanitizeText(req.IncidentLocation),
		IncidentDescription: utils.SanitizeText(req.IncidentDescription),
		SupportingDocuments: req.SupportingDocuments,
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	release := s.lease.Acquire(entity.KindClaim, claim.ID)
	defer release()

	return s.adjudicate(ctx, claim)
}

// adjudicate runs one score-normalize-route cycle on a claim and persists
// the resulting transition. The caller holds the claim's lease.
func (s *claimServiceImpl) adjudicate(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
	result := s.scorer.Score(ctx, port.ClaimScoring, port.ScoringPayload{
		Amount:      float64(claim.AmountCents) / 100,
		Description: claim.IncidentDescription,
		Location:    claim.IncidentLocation,
		ClaimType:   claim.ClaimType,
	})

	// A cancelled submission must not apply the score it raced against.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	score := scoring.NormalizeClaim(result, scoring.ClaimContext{
		AmountCents:      claim.AmountCents,
		HasIncidentDate:  claim.IncidentDate != nil,
		IncidentLocation: claim.IncidentLocation,
		Description:      claim.IncidentDescription,
		DocumentCount:    len(claim.SupportingDocuments),
	})

	outcome := workflow.RouteClaim(score, result.Source, s.thresholds)

	// Reanalysis that lands on the state the claim is already in is a
	// score refresh, not a transition. An identical refresh is a no-op.
	if claim.Status == outcome.NextState {
		if claim.HasScores(score.Confidence, score.Fraud, score.Risk) && claim.AIAssessment == result.Raw {
			return claim, nil
		}
		claim.SetScores(score.Confidence, score.Fraud, score.Risk)
		claim.AIAssessment = result.Raw
		claim.AppendReviewerNote(outcome.Annotation)
		if err := s.claimRepo.UpdateDecision(ctx, claim, claim.Status); err != nil {
			return nil, fmt.Errorf("persist claim scores: %w", err)
		}
		return claim, nil
	}

	transition, err := workflow.ClaimTransition(claim.ID, claim.Status, outcome.NextState)
	if err != nil {
		return nil, err
	}

	fromStatus := claim.Status
	claim.Status = outcome.NextState
	claim.SetScores(score.Confidence, score.Fraud, score.Risk)
	claim.AIAssessment = result.Raw
	claim.AutoApproved = outcome.AutoApproved
	claim.AppendReviewerNote(outcome.Annotation)
	if outcome.AutoApproved {
		now := s.clock.Now()
		claim.ReviewedAt = &now
	}

	if err := s.claimRepo.UpdateDecision(ctx, claim, fromStatus); err != nil {
		return nil, fmt.Errorf("persist claim decision: %w", err)
	}

	s.logger.Info("Claim adjudicated",
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"risk_score", score.Risk,
		"score_source", result.Source,
		"status", claim.Status,
	)

	s.dispatchClaimEffects(ctx, claim, transition, outcome.DispatchPayment)

	return claim, nil
}

// Decide applies an admin decision to a claim awaiting human review.
// Repeating the same decision on an already-decided claim is a no-op.
func (s *claimServiceImpl) Decide(ctx context.Context, claimID int64, adminID int64, decision workflow.Decision, notes string) (*entity.Claim, error) {
	if !decision.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", entity.ErrValidation, decision)
	}

	release := s.lease.Acquire(entity.KindClaim, claimID)
	defer release()

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", entity.ErrNotFound, claimID)
	}

	target := entity.ClaimRejected
	if decision == workflow.DecisionApprove {
		target = entity.ClaimApproved
	}

	if claim.Status == target || (target == entity.ClaimApproved && claim.Status == entity.ClaimPaid) {
		return claim, nil
	}
	if claim.Status == entity.ClaimSubmitted {
		return nil, fmt.Errorf("%w: claim %d has not been adjudicated yet", workflow.ErrInvalidTransition, claimID)
	}
	if !claim.AwaitingHuman() {
		return nil, fmt.Errorf("%w: claim %d is %s", workflow.ErrAlreadyDecided, claimID, claim.Status)
	}

	transition, err := workflow.ClaimTransition(claim.ID, claim.Status, target)
	if err != nil {
		return nil, err
	}

	fromStatus := claim.Status
	now := s.clock.Now()
	claim.Status = target
	claim.ReviewedBy = &adminID
	claim.ReviewedAt = &now
	if decision == workflow.DecisionApprove {
		if notes == "" {
			notes = "Approved by admin"
		}
	} else {
		if notes == "" {
			notes = "Rejected by admin"
		}
		claim.RejectionReason = notes
	}
	claim.AppendReviewerNote(notes)

	if err := s.claimRepo.UpdateDecision(ctx, claim, fromStatus); err != nil {
		return nil, fmt.Errorf("persist admin decision: %w", err)
	}

	s.logger.Info("Admin decided claim",
		"claim_id", claim.ID,
		"admin_id", adminID,
		"decision", decision,
		"status", claim.Status,
	)

	s.dispatchClaimEffects(ctx, claim, transition, decision == workflow.DecisionApprove)

	return claim, nil
}

// Reanalyze re-runs AI scoring on a claim still awaiting human review. The
// fresh score may promote the claim to APPROVED, move it between the two
// review queues, or leave it in place with refreshed scores. A claim stuck
// in SUBMITTED because its original adjudication was interrupted is picked
// up here as well. Claims already decided by a human or the machine are
// never reopened.
func (s *claimServiceImpl) Reanalyze(ctx context.Context, claimID int64) (*entity.Claim, error) {
	release := s.lease.Acquire(entity.KindClaim, claimID)
	defer release()

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", entity.ErrNotFound, claimID)
	}
	if claim.Status != entity.ClaimSubmitted && !claim.AwaitingHuman() {
		return nil, fmt.Errorf("%w: claim %d is %s", workflow.ErrAlreadyDecided, claimID, claim.Status)
	}

	return s.adjudicate(ctx, claim)
}

// MarkPaid confirms the payout of an approved claim and moves it to PAID.
// Confirming an already-paid claim is a no-op.
func (s *claimServiceImpl) MarkPaid(ctx context.Context, claimID int64) (*entity.Claim, error) {
	release := s.lease.Acquire(entity.KindClaim, claimID)
	defer release()

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", entity.ErrNotFound, claimID)
	}
	if claim.Status == entity.ClaimPaid {
		return claim, nil
	}

	transition, err := workflow.ClaimTransition(claim.ID, claim.Status, entity.ClaimPaid)
	if err != nil {
		return nil, err
	}

	// Settle the payout that the approval dispatched, if one exists.
	payments, err := s.paymentRepo.ListByClaimID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("list claim payments: %w", err)
	}
	now := s.clock.Now()
	for _, p := range payments {
		if p.Type == entity.PaymentTypeClaimPayout && p.Status == entity.PaymentPending {
			if err := s.paymentRepo.MarkCompleted(ctx, p.ID, now); err != nil {
				return nil, fmt.Errorf("complete payout: %w", err)
			}
		}
	}

	fromStatus := claim.Status
	claim.Status = entity.ClaimPaid
	claim.AppendReviewerNote("Payout confirmed")

	if err := s.claimRepo.UpdateDecision(ctx, claim, fromStatus); err != nil {
		return nil, fmt.Errorf("persist payout confirmation: %w", err)
	}

	s.logger.Info("Claim paid", "claim_id", claim.ID, "claim_number", claim.ClaimNumber)

	s.dispatchClaimEffects(ctx, claim, transition, false)

	return claim, nil
}

// GetByID returns a single claim.
func (s *claimServiceImpl) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", entity.ErrNotFound, id)
	}
	return claim, nil
}

// GetByClaimNumber returns a single claim by its public claim number.
func (s *claimServiceImpl) GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByClaimNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %s", entity.ErrNotFound, number)
	}
	return claim, nil
}

// ListPending returns claims parked in one of the review queues.
func (s *claimServiceImpl) ListPending(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error) {
	if status != entity.ClaimUnderReview && status != entity.ClaimPendingAdminReview {
		return nil, fmt.Errorf("%w: %s is not a review queue", entity.ErrValidation, status)
	}
	return s.claimRepo.ListByStatus(ctx, status, limit, offset)
}

func (s *claimServiceImpl) dispatchClaimEffects(ctx context.Context, claim *entity.Claim, transition workflow.Transition, dispatchPayment bool) {
	effects := Effects{}

	if dispatchPayment {
		effects.Payment = &PaymentEffect{
			Type:        entity.PaymentTypeClaimPayout,
			AmountCents: claim.AmountCents,
			Description: payoutDescription(claim.ClaimNumber, claim.AmountCents),
		}
	}

	effects.Notification = &NotificationEffect{
		EventType: claimEventType(claim),
		Claim:     claim,
	}

	outcome := s.dispatcher.Apply(ctx, transition, effects)
	if len(outcome.Annotations) > 0 {
		for _, a := range outcome.Annotations {
			claim.AppendReviewerNote(a)
		}
		if err := s.claimRepo.UpdateDecision(ctx, claim, claim.Status); err != nil {
			s.logger.Error("Failed to record effect annotations", "error", err, "claim_id", claim.ID)
		}
	}

	// A payout settled synchronously completes the claim right away; a
	// pending or failed payout waits for MarkPaid.
	if claim.Status == entity.ClaimApproved && outcome.PaymentStatus == entity.PaymentCompleted {
		s.settle(ctx, claim)
	}
}

// settle moves an approved claim with a completed payout to PAID. Failures
// here leave the claim APPROVED for MarkPaid to finish later.
func (s *claimServiceImpl) settle(ctx context.Context, claim *entity.Claim) {
	transition, err := workflow.ClaimTransition(claim.ID, claim.Status, entity.ClaimPaid)
	if err != nil {
		s.logger.Error("Failed to settle claim", "error", err, "claim_id", claim.ID)
		return
	}

	fromStatus := claim.Status
	claim.Status = entity.ClaimPaid
	claim.AppendReviewerNote("Payout confirmed")

	if err := s.claimRepo.UpdateDecision(ctx, claim, fromStatus); err != nil {
		claim.Status = fromStatus
		s.logger.Error("Failed to persist claim settlement", "error", err, "claim_id", claim.ID)
		return
	}

	s.logger.Info("Claim paid", "claim_id", claim.ID, "claim_number", claim.ClaimNumber)

	s.dispatchClaimEffects(ctx, claim, transition, false)
}

func claimEventType(claim *entity.Claim) string {
	switch claim.Status {
	case entity.ClaimApproved:
		if claim.AutoApproved {
			return entity.EventClaimAutoApproved
		}
		return entity.EventClaimApproved
	case entity.ClaimPendingAdminReview:
		return entity.EventClaimPendingReview
	case entity.ClaimUnderReview:
		return entity.EventClaimUnderReview
	case entity.ClaimRejected:
		return entity.EventClaimRejected
	default:
		return entity.EventClaimPaid
	}
}
