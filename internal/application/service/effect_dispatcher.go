package service

import (
	"context"
	"fmt"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/workflow"
)

// premiumDueDays is how far out the first premium payment falls due.
const premiumDueDays = 30

// PaymentEffect describes the payment a transition requires.
type PaymentEffect struct {
	Type        string
	AmountCents int64
	Description string

	// Pending payments (new premiums) are created PENDING with a due date;
	// otherwise the payment settles synchronously as COMPLETED.
	Pending bool
}

// NotificationEffect names the event a transition emits.
type NotificationEffect struct {
	EventType   string
	Application *entity.Application
	Claim       *entity.Claim
}

// Effects is the set of side effects a transition implies.
type Effects struct {
	Payment      *PaymentEffect
	Notification *NotificationEffect
}

// EffectOutcome reports what the dispatcher actually did. Annotations carry
// dispatcher-level failures that must be recorded on the entity without
// failing the transition.
type EffectOutcome struct {
	PaymentID      *int64
	PaymentCreated bool
	PaymentStatus  string
	Annotations    []string
}

// EffectDispatcher executes the side effects implied by a transition,
// idempotently per entity+transition pair. Effect failures never roll back
// the adjudication decision that triggered them.
type EffectDispatcher interface {
	Apply(ctx context.Context, transition workflow.Transition, effects Effects) *EffectOutcome
}

type effectDispatcherImpl struct {
	paymentRepo     port.PaymentRepository
	notificationSvc NotificationService
	txManager       port.TransactionManager
	idGen           port.IDGenerator
	clock           port.Clock
	logger          Logger
}

// NewEffectDispatcher creates a new EffectDispatcher
func NewEffectDispatcher(
	paymentRepo port.PaymentRepository,
	notificationSvc NotificationService,
	txManager port.TransactionManager,
	idGen port.IDGenerator,
	clock port.Clock,
	logger Logger,
) EffectDispatcher {
	return &effectDispatcherImpl{
		paymentRepo:     paymentRepo,
		notificationSvc: notificationSvc,
		txManager:       txManager,
		idGen:           idGen,
		clock:           clock,
		logger:          logger,
	}
}

// Apply performs the payment effect first, then the notification effect.
// Re-invoking for an already-applied transition creates nothing new.
func (d *effectDispatcherImpl) Apply(ctx context.Context, transition workflow.Transition, effects Effects) *EffectOutcome {
	outcome := &EffectOutcome{}

	if effects.Payment != nil {
		d.applyPayment(ctx, transition, *effects.Payment, outcome)
	}

	if effects.Notification != nil {
		d.applyNotification(ctx, *effects.Notification)
	}

	return outcome
}

func (d *effectDispatcherImpl) applyPayment(ctx context.Context, transition workflow.Transition, effect PaymentEffect, outcome *EffectOutcome) {
	// Check-then-create runs inside one transaction so racing dispatches of
	// the same transition cannot both insert.
	err := d.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := d.paymentRepo.GetByEntityTransition(txCtx, transition.EntityKind, transition.EntityID, transition.Ref())
		if err != nil {
			return fmt.Errorf("payment idempotency check: %w", err)
		}
		if existing != nil {
			outcome.PaymentID = &existing.ID
			outcome.PaymentStatus = existing.Status
			d.logger.Info("Payment already dispatched for transition",
				"entity_kind", transition.EntityKind,
				"entity_id", transition.EntityID,
				"transition", transition.Ref(),
				"payment_id", existing.ID,
			)
			return nil
		}

		payment := &entity.Payment{
			Type:        effect.Type,
			AmountCents: effect.AmountCents,
			Description: effect.Description,
			Transition:  transition.Ref(),
		}
		switch transition.EntityKind {
		case entity.KindApplication:
			payment.ApplicationID = &transition.EntityID
		case entity.KindClaim:
			payment.ClaimID = &transition.EntityID
		}

		if effect.Pending {
			payment.Status = entity.PaymentPending
			due := d.clock.Now().AddDate(0, 0, premiumDueDays)
			payment.DueDate = &due
		} else {
			payment.Status = entity.PaymentCompleted
			payment.TransactionID = d.idGen.TransactionRef("CLM")
			now := d.clock.Now()
			payment.PaidAt = &now
		}

		if err := d.paymentRepo.Create(txCtx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		outcome.PaymentID = &payment.ID
		outcome.PaymentCreated = true
		outcome.PaymentStatus = payment.Status
		return nil
	})

	if err != nil {
		// The state transition stands; the failure is recorded on the entity.
		d.logger.Error("Payment dispatch failed",
			"error", err,
			"entity_kind", transition.EntityKind,
			"entity_id", transition.EntityID,
			"transition", transition.Ref(),
		)
		outcome.Annotations = append(outcome.Annotations, fmt.Sprintf("payment processing failed: %v", err))
	}
}

func (d *effectDispatcherImpl) applyNotification(ctx context.Context, effect NotificationEffect) {
	switch {
	case effect.Claim != nil:
		d.notificationSvc.NotifyClaim(ctx, effect.Claim, effect.EventType)
	case effect.Application != nil:
		d.notificationSvc.NotifyApplication(ctx, effect.Application, effect.EventType)
	}
}

// premiumDescription builds the description attached to a first premium
// payment record.
func premiumDescription(policyName string) string {
	return fmt.Sprintf("Monthly premium payment for %s", policyName)
}

// payoutDescription builds the description attached to a claim payout.
func payoutDescription(claimNumber string, amountCents int64) string {
	return fmt.Sprintf("Payout for claim %s (%.2f)", claimNumber, float64(amountCents)/100)
}
