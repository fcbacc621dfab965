package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleFixture struct {
	watchlist *WatchlistManager
	proposals *ProposalManager
	notifier  *fakeNotifier
	publisher *fakePublisher
	lifecycle *Lifecycle
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	db := setupTestDB(t)
	f := &lifecycleFixture{
		watchlist: NewWatchlistManager(db),
		proposals: NewProposalManager(db),
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
	}
	f.lifecycle = NewLifecycle(db, f.notifier, f.publisher)
	return f
}

func (f *lifecycleFixture) open(t *testing.T, p Proposal) Proposal {
	require.NoError(t, f.proposals.Put(context.Background(), p))
	return p
}

func (f *lifecycleFixture) assertGone(t *testing.T, id string) {
	_, err := f.proposals.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestConclude_AddApplied(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 3, No: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Proposal.Status)
	assert.Equal(t, NoOpNone, out.NoOp)
	assert.True(t, out.Changed())

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []TrackedEntry{sampleCatalog[2].Tracked()}, list)
	f.assertGone(t, "vote-1")

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "chan-1", msgs[0].ChannelID)
	assert.Contains(t, msgs[0].Text, "added")
	assert.Len(t, f.publisher.published(), 1)
}

func TestConclude_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	before := []TrackedEntry{sampleCatalog[0].Tracked()}
	require.NoError(t, f.watchlist.Replace(ctx, "guild-1", before))
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 1, No: 3})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Proposal.Status)
	assert.False(t, out.Changed())

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, before, list)
	f.assertGone(t, "vote-1")

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "failed")
}

func TestConclude_TieIsRejected(t *testing.T) {
	f := newLifecycleFixture(t)
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(context.Background(), p, Tally{Yes: 2, No: 2})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Proposal.Status)
}

func TestConclude_RemoveApplied(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	require.NoError(t, f.watchlist.Replace(ctx, "guild-1", []TrackedEntry{
		sampleCatalog[0].Tracked(), sampleCatalog[2].Tracked(), sampleCatalog[3].Tracked(),
	}))

	// stored entry matches by name and author regardless of case
	target := CatalogEntry{Name: "bar", Author: "c"}
	p := f.open(t, openProposal("vote-1", ProposalRemove, target))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 2})
	require.NoError(t, err)
	assert.True(t, out.Changed())

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []TrackedEntry{sampleCatalog[0].Tracked(), sampleCatalog[3].Tracked()}, list)
}

func TestConclude_RemoveOfUntrackedIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	before := []TrackedEntry{sampleCatalog[0].Tracked()}
	require.NoError(t, f.watchlist.Replace(ctx, "guild-1", before))
	p := f.open(t, openProposal("vote-1", ProposalRemove, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 5, No: 0})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Proposal.Status)
	assert.Equal(t, NoOpNotTracked, out.NoOp)

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, before, list)
	f.assertGone(t, "vote-1")

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "no longer on the watch-list")
}

func TestConclude_AddAlreadyTrackedIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	before := []TrackedEntry{sampleCatalog[2].Tracked()}
	require.NoError(t, f.watchlist.Replace(ctx, "guild-1", before))
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 1})
	require.NoError(t, err)
	assert.Equal(t, NoOpAlreadyTracked, out.NoOp)

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, before, list)
}

func TestConclude_FullListIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	full := fillerEntries(MaxTrackedEntries)
	require.NoError(t, f.watchlist.Replace(ctx, "guild-1", full))
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 9, No: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Proposal.Status)
	assert.Equal(t, NoOpWatchlistFull, out.NoOp)

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Len(t, list, MaxTrackedEntries)
	assert.Equal(t, full, list)
	f.assertGone(t, "vote-1")
}

func TestConclude_SecondPassDoesNotReapply(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	_, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 3, No: 1})
	require.NoError(t, err)

	// same id forced through the transition path again, as after a crash before cleanup
	_, err = f.lifecycle.Conclude(ctx, p, Tally{Yes: 3, No: 1})
	assert.ErrorIs(t, err, ErrProposalGone)

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []TrackedEntry{sampleCatalog[2].Tracked()}, list)
	assert.Len(t, f.notifier.messages(), 1)
}

func TestConclude_NotificationFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.notifier.err = errors.New("channel unreachable")
	p := f.open(t, openProposal("vote-1", ProposalAdd, sampleCatalog[2]))

	out, err := f.lifecycle.Conclude(ctx, p, Tally{Yes: 3})
	require.NoError(t, err)
	assert.True(t, out.Changed())
	f.assertGone(t, "vote-1")
}

func TestAbandon_RemovesSilently(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	before := []TrackedEntry{sampleCatalog[0].Tracked()}
	require.NoError(t, f.watchlist.Replace(ctx, "guild-1", before))
	p := f.open(t, openProposal("vote-1", ProposalRemove, sampleCatalog[0]))

	out, err := f.lifecycle.Abandon(ctx, p, "message deleted")
	require.NoError(t, err)
	assert.Equal(t, StatusAbandoned, out.Proposal.Status)
	assert.Equal(t, "message deleted", out.Reason)

	f.assertGone(t, "vote-1")
	assert.Empty(t, f.notifier.messages())

	published := f.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, StatusAbandoned, published[0].Proposal.Status)

	list, err := f.watchlist.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, before, list)

	_, err = f.lifecycle.Abandon(ctx, p, "again")
	assert.ErrorIs(t, err, ErrProposalGone)
}

func TestApplyChange(t *testing.T) {
	foo := sampleCatalog[0]
	list := []TrackedEntry{foo.Tracked()}

	next, reason := applyChange(list, Proposal{Kind: ProposalAdd, Target: sampleCatalog[1]})
	assert.Equal(t, NoOpNone, reason)
	assert.Len(t, next, 2)
	assert.Len(t, list, 1, "input must not be modified")

	_, reason = applyChange(list, Proposal{Kind: ProposalAdd, Target: foo})
	assert.Equal(t, NoOpAlreadyTracked, reason)

	next, reason = applyChange(list, Proposal{Kind: ProposalRemove, Target: CatalogEntry{Name: "FOO", Author: "a"}})
	assert.Equal(t, NoOpNone, reason)
	assert.Empty(t, next)
}
