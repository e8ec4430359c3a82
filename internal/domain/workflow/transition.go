// Package workflow is the adjudication decision core: it validates lifecycle
// transitions for applications and claims and routes freshly scored
// submissions into their next state. It is pure; persistence and side
// effects live in the application layer.
package workflow

import (
	"fmt"

	"github.com/insurhub/underwriter/internal/domain/entity"
)

// Transition describes one validated state change of a single entity. The
// EffectDispatcher keys idempotency on (entity kind, entity id, Ref()).
type Transition struct {
	EntityKind string
	EntityID   int64
	From       string
	To         string
}

// Ref returns the canonical "FROM->TO" label stored alongside payments and
// used for idempotency checks.
func (t Transition) Ref() string {
	return fmt.Sprintf("%s->%s", t.From, t.To)
}

var applicationTransitions = map[entity.ApplicationStatus][]entity.ApplicationStatus{
	entity.ApplicationApplied: {
		entity.ApplicationActive,
		entity.ApplicationPendingApproval,
	},
	entity.ApplicationPendingApproval: {
		entity.ApplicationActive,
		entity.ApplicationRejected,
	},
	// ACTIVE and REJECTED are terminal for this machine.
}

var claimTransitions = map[entity.ClaimStatus][]entity.ClaimStatus{
	entity.ClaimSubmitted: {
		entity.ClaimApproved,
		entity.ClaimPendingAdminReview,
		entity.ClaimUnderReview,
	},
	entity.ClaimPendingAdminReview: {
		entity.ClaimApproved,
		entity.ClaimRejected,
		// Reanalysis can demote a claim into the standard review queue.
		entity.ClaimUnderReview,
	},
	entity.ClaimUnderReview: {
		entity.ClaimApproved,
		entity.ClaimRejected,
		// Reanalysis can promote a claim into the admin review queue.
		entity.ClaimPendingAdminReview,
	},
	entity.ClaimApproved: {
		entity.ClaimPaid,
	},
	// REJECTED and PAID are terminal.
}

// CanApplicationTransition reports whether an application may move from one
// status to another.
func CanApplicationTransition(from, to entity.ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanClaimTransition reports whether a claim may move from one status to
// another.
func CanClaimTransition(from, to entity.ClaimStatus) bool {
	for _, allowed := range claimTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ApplicationTransition validates and builds a Transition for an application.
func ApplicationTransition(id int64, from, to entity.ApplicationStatus) (Transition, error) {
	if !CanApplicationTransition(from, to) {
		return Transition{}, fmt.Errorf("%w: application %d cannot move %s -> %s",
			ErrInvalidTransition, id, from, to)
	}
	return Transition{
		EntityKind: entity.KindApplication,
		EntityID:   id,
		From:       from.String(),
		To:         to.String(),
	}, nil
}

// ClaimTransition validates and builds a Transition for a claim.
func ClaimTransition(id int64, from, to entity.ClaimStatus) (Transition, error) {
	if !CanClaimTransition(from, to) {
		return Transition{}, fmt.Errorf("%w: claim %d cannot move %s -> %s",
			ErrInvalidTransition, id, from, to)
	}
	return Transition{
		EntityKind: entity.KindClaim,
		EntityID:   id,
		From:       from.String(),
		To:         to.String(),
	}, nil
}

// IsApplicationTerminal reports whether the automated machine is done with
// the application.
func IsApplicationTerminal(s entity.ApplicationStatus) bool {
	return s == entity.ApplicationActive || s == entity.ApplicationRejected
}

// IsClaimTerminal reports whether the automated machine is done with the
// claim. Approved is not terminal: a confirmed payout still moves it to Paid.
func IsClaimTerminal(s entity.ClaimStatus) bool {
	return s == entity.ClaimRejected || s == entity.ClaimPaid
}
