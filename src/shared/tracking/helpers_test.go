package tracking

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "tracking.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

var sampleCatalog = []CatalogEntry{
	{Name: "Foo", Author: "A", Badge: "⭐"},
	{Name: "Foo", Author: "B", Badge: ""},
	{Name: "Bar", Author: "C", Badge: ""},
	{Name: "Baz", Author: "Team D", Badge: "⭐"},
}

func fillerEntries(n int) []TrackedEntry {
	out := make([]TrackedEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, TrackedEntry{Name: fmt.Sprintf("Filler %02d", i), Author: "Z"})
	}
	return out
}

type fakeCatalog struct {
	mu      sync.Mutex
	entries []CatalogEntry
	err     error
	calls   int
}

func (f *fakeCatalog) FetchCatalog(context.Context) ([]CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]CatalogEntry(nil), f.entries...), nil
}

type createdVote struct {
	ChannelID string
	Question  string
	Duration  time.Duration
}

type fakeHost struct {
	mu        sync.Mutex
	seq       int
	created   []createdVote
	cancelled []string
	statuses  map[string]VoteStatus
	errs      map[string]error
	createErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{statuses: map[string]VoteStatus{}, errs: map[string]error{}}
}

func (f *fakeHost) CreateVote(_ context.Context, channelID, question string, duration time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	f.created = append(f.created, createdVote{ChannelID: channelID, Question: question, Duration: duration})
	return fmt.Sprintf("vote-%d", f.seq), nil
}

func (f *fakeHost) VoteStatus(_ context.Context, _ string, voteID string) (VoteStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[voteID]; err != nil {
		return VoteStatus{}, err
	}
	return f.statuses[voteID], nil
}

func (f *fakeHost) CancelVote(_ context.Context, _ string, voteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, voteID)
	return nil
}

func (f *fakeHost) set(voteID string, status VoteStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[voteID] = status
}

func (f *fakeHost) fail(voteID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[voteID] = err
}

type sentMessage struct {
	ChannelID string
	Text      string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Text: text})
	return f.err
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakePublisher struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (f *fakePublisher) PublishOutcome(_ context.Context, out Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, out)
	return nil
}

func (f *fakePublisher) published() []Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Outcome(nil), f.outcomes...)
}

func openProposal(id string, kind ProposalKind, target CatalogEntry) Proposal {
	return Proposal{
		ID:              id,
		Kind:            kind,
		Target:          target,
		ScopeID:         "guild-1",
		NotifyChannelID: "chan-1",
		CreatedAt:       time.Now(),
		Status:          StatusOpen,
	}
}
