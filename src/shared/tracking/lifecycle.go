package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// ErrProposalGone is returned when a transition finds its proposal already removed, which
// means another pass (or a previous attempt) completed it.
var ErrProposalGone = errors.New("tracking: proposal already completed")

// NoOpReason explains why an Applied proposal left the watch-list unchanged.
type NoOpReason string

const (
	NoOpNone           NoOpReason = ""
	NoOpAlreadyTracked NoOpReason = "already_tracked"
	NoOpNotTracked     NoOpReason = "not_tracked"
	NoOpWatchlistFull  NoOpReason = "watchlist_full"
)

// Outcome describes a proposal that left Open.
type Outcome struct {
	Proposal Proposal   `json:"proposal"`
	Tally    Tally      `json:"tally"`
	NoOp     NoOpReason `json:"noOp,omitempty"`
	// Reason is set for abandoned proposals.
	Reason string `json:"reason,omitempty"`
}

// Changed reports whether the outcome mutated the watch-list.
func (o Outcome) Changed() bool {
	return o.Proposal.Status == StatusApplied && o.NoOp == NoOpNone
}

// Lifecycle drives proposals from Open to a terminal state and reflects the result into
// the watch-list. Only the reconciler calls it.
type Lifecycle struct {
	db        *gorm.DB
	notifier  Notifier
	publisher OutcomePublisher
}

// NewLifecycle creates the transition executor. publisher may be nil.
func NewLifecycle(db *gorm.DB, notifier Notifier, publisher OutcomePublisher) *Lifecycle {
	return &Lifecycle{db: db, notifier: notifier, publisher: publisher}
}

// Conclude completes a proposal whose vote has closed. Removing the proposal and changing
// the watch-list commit together, so a proposal is applied at most once: a second call for
// the same id returns ErrProposalGone and touches nothing.
func (l *Lifecycle) Conclude(ctx context.Context, p Proposal, tally Tally) (Outcome, error) {
	out := Outcome{Proposal: p, Tally: tally}
	out.Proposal.Status = StatusRejected
	if tally.Passed() {
		out.Proposal.Status = StatusApplied
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := deleteProposal(tx, p.ID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrProposalGone
		}
		if out.Proposal.Status != StatusApplied {
			return nil
		}

		current, err := loadEntries(tx, p.ScopeID)
		if err != nil {
			return err
		}
		next, reason := applyChange(current, p)
		out.NoOp = reason
		if reason != NoOpNone {
			return nil
		}
		return replaceEntries(tx, p.ScopeID, next)
	})
	if errors.Is(err, ErrProposalGone) {
		return Outcome{}, ErrProposalGone
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("conclude proposal %s: %w", p.ID, err)
	}

	ProposalOutcomes.WithLabelValues(string(p.Kind), string(out.Proposal.Status)).Inc()
	l.announce(ctx, out)
	return out, nil
}

// Abandon drops a proposal whose vote can no longer be reached. Nothing is posted to the
// channel; the outcome is logged and published.
func (l *Lifecycle) Abandon(ctx context.Context, p Proposal, reason string) (Outcome, error) {
	removed, err := deleteProposal(l.db.WithContext(ctx), p.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("abandon proposal %s: %w", p.ID, err)
	}
	if !removed {
		return Outcome{}, ErrProposalGone
	}

	out := Outcome{Proposal: p, Reason: reason}
	out.Proposal.Status = StatusAbandoned

	log.Printf("tracking: abandoned %s proposal %s for %s in scope %s: %s",
		p.Kind, p.ID, p.Target.Label(), p.ScopeID, reason)
	ProposalOutcomes.WithLabelValues(string(p.Kind), string(StatusAbandoned)).Inc()
	l.publish(ctx, out)
	return out, nil
}

func (l *Lifecycle) announce(ctx context.Context, out Outcome) {
	if l.notifier != nil {
		if err := l.notifier.Notify(ctx, out.Proposal.NotifyChannelID, OutcomeMessage(out)); err != nil {
			log.Printf("tracking: failed to announce outcome of proposal %s: %v", out.Proposal.ID, err)
		}
	}
	l.publish(ctx, out)
}

func (l *Lifecycle) publish(ctx context.Context, out Outcome) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishOutcome(ctx, out); err != nil {
		log.Printf("tracking: failed to publish outcome of proposal %s: %v", out.Proposal.ID, err)
	}
}

// applyChange computes the list after an approved proposal. A non-empty reason means the
// list must stay as it is.
func applyChange(current []TrackedEntry, p Proposal) ([]TrackedEntry, NoOpReason) {
	switch p.Kind {
	case ProposalAdd:
		entry := p.Target.Tracked()
		if containsEntry(current, entry) {
			return current, NoOpAlreadyTracked
		}
		if len(current) >= MaxTrackedEntries {
			return current, NoOpWatchlistFull
		}
		next := make([]TrackedEntry, 0, len(current)+1)
		next = append(next, current...)
		return append(next, entry), NoOpNone
	case ProposalRemove:
		idx := indexOfBot(current, p.Target.Name, p.Target.Author)
		if idx < 0 {
			return current, NoOpNotTracked
		}
		next := make([]TrackedEntry, 0, len(current)-1)
		next = append(next, current[:idx]...)
		return append(next, current[idx+1:]...), NoOpNone
	default:
		return current, NoOpNotTracked
	}
}
