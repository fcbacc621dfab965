package tracking

import (
	"context"
	"time"
)

// CatalogSource produces the current catalog snapshot.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]CatalogEntry, error)
}

// CatalogInvalidator is implemented by catalog sources that hold on to a snapshot.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// VoteState is what the vote host knows about a vote.
type VoteState int

const (
	VoteRunning VoteState = iota
	VoteConcluded
	// VoteNotFound covers a deleted channel, a missing message or a message without a vote.
	VoteNotFound
)

func (s VoteState) String() string {
	switch s {
	case VoteConcluded:
		return "concluded"
	case VoteNotFound:
		return "not_found"
	default:
		return "running"
	}
}

// Tally is the final yes/no count of a concluded vote.
type Tally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Passed applies the approval rule: strictly more yes than no.
func (t Tally) Passed() bool { return t.Yes > t.No }

// VoteStatus is the vote host's answer for one vote. Tally is only meaningful when concluded.
type VoteStatus struct {
	State VoteState
	Tally Tally
}

// VoteHost runs yes/no votes on the messaging platform.
type VoteHost interface {
	CreateVote(ctx context.Context, channelID, question string, duration time.Duration) (string, error)
	VoteStatus(ctx context.Context, channelID, voteID string) (VoteStatus, error)
	CancelVote(ctx context.Context, channelID, voteID string) error
}

// Notifier delivers outcome messages. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, channelID, text string) error
}

// OutcomePublisher fans terminal proposal outcomes out to other consumers.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, out Outcome) error
}
