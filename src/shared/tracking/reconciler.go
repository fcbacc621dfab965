package tracking

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultReconcileInterval is how often open votes are checked.
const DefaultReconcileInterval = 5 * time.Second

const defaultLeaseTTL = 30 * time.Second

// TickLease keeps two processes sharing one database from reconciling at the same time.
type TickLease interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// ReconcilerConfig holds the optional knobs of a Reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Clock    clockwork.Clock
	// Lease is optional.
	Lease    TickLease
	LeaseTTL time.Duration

	// LeaseRequired skips a pass when the lease backend errors. Otherwise the pass
	// runs guarded only by the in-process lock.
	LeaseRequired bool
}

// TickStats summarises one reconciliation pass.
type TickStats struct {
	ID        string
	Skipped   bool
	Open      int
	Running   int
	Applied   int
	Rejected  int
	Abandoned int
	Failed    int
}

// Reconciler is the background loop that notices concluded votes and drives their
// proposals to completion.
type Reconciler struct {
	proposals *ProposalManager
	host      VoteHost
	lifecycle *Lifecycle

	interval time.Duration
	clock    clockwork.Clock
	lease         TickLease
	leaseTTL      time.Duration
	leaseRequired bool

	mu sync.Mutex
}

// NewReconciler wires the loop. Zero config values fall back to the defaults.
func NewReconciler(proposals *ProposalManager, host VoteHost, lifecycle *Lifecycle, cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReconcileInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = defaultLeaseTTL
	}
	return &Reconciler{
		proposals: proposals,
		host:      host,
		lifecycle: lifecycle,
		interval:  cfg.Interval,
		clock:     cfg.Clock,
		lease:         cfg.Lease,
		leaseTTL:      cfg.LeaseTTL,
		leaseRequired: cfg.LeaseRequired,
	}
}

// Run ticks once immediately and then every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("reconciler: watching open votes every %s", r.interval)
	for {
		r.Tick(ctx)

		select {
		case <-ctx.Done():
			log.Printf("reconciler: stopped")
			return
		case <-ticker.Chan():
		}
	}
}

// Tick performs a single pass over every open proposal. Concurrent calls are serialised.
func (r *Reconciler) Tick(ctx context.Context) TickStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := TickStats{ID: uuid.NewString()}
	start := r.clock.Now()
	defer func() {
		ReconcileDuration.Observe(r.clock.Since(start).Seconds())
	}()

	if r.lease != nil {
		ok, err := r.lease.TryAcquire(ctx, r.leaseTTL)
		switch {
		case err != nil && r.leaseRequired:
			log.Printf("reconciler[%s]: lease unavailable, skipping pass: %v", stats.ID, err)
			ReconcileTicks.WithLabelValues("error").Inc()
			stats.Skipped = true
			return stats
		case err != nil:
			log.Printf("reconciler[%s]: lease unavailable, running on local lock: %v", stats.ID, err)
			ReconcileErrors.WithLabelValues("lease").Inc()
		case !ok:
			ReconcileTicks.WithLabelValues("skipped").Inc()
			stats.Skipped = true
			return stats
		default:
			defer func() {
				if err := r.lease.Release(context.WithoutCancel(ctx)); err != nil {
					log.Printf("reconciler[%s]: release lease: %v", stats.ID, err)
				}
			}()
		}
	}

	open, err := r.proposals.ListOpen(ctx)
	if err != nil {
		log.Printf("reconciler[%s]: list open proposals: %v", stats.ID, err)
		ReconcileErrors.WithLabelValues("list").Inc()
		ReconcileTicks.WithLabelValues("error").Inc()
		return stats
	}
	stats.Open = len(open)

	for _, p := range open {
		if ctx.Err() != nil {
			break
		}
		r.reconcile(ctx, &stats, p)
	}

	result := "ok"
	if stats.Failed > 0 {
		result = "error"
	}
	ReconcileTicks.WithLabelValues(result).Inc()
	return stats
}

func (r *Reconciler) reconcile(ctx context.Context, stats *TickStats, p Proposal) {
	status, err := r.host.VoteStatus(ctx, p.NotifyChannelID, p.ID)
	if err != nil {
		log.Printf("reconciler[%s]: vote status for proposal %s: %v", stats.ID, p.ID, err)
		ReconcileErrors.WithLabelValues("vote_status").Inc()
		stats.Failed++
		return
	}

	// A decided transition finishes even if shutdown starts halfway through.
	tctx := context.WithoutCancel(ctx)

	switch status.State {
	case VoteRunning:
		stats.Running++

	case VoteNotFound:
		_, err := r.lifecycle.Abandon(tctx, p, "vote message or channel no longer exists")
		if r.transitionFailed(stats, p, "abandon", err) {
			return
		}
		stats.Abandoned++

	case VoteConcluded:
		out, err := r.lifecycle.Conclude(tctx, p, status.Tally)
		if r.transitionFailed(stats, p, "conclude", err) {
			return
		}
		if out.Proposal.Status == StatusApplied {
			stats.Applied++
		} else {
			stats.Rejected++
		}
		log.Printf("reconciler[%s]: proposal %s %s (%d yes / %d no)",
			stats.ID, p.ID, out.Proposal.Status, status.Tally.Yes, status.Tally.No)
	}
}

func (r *Reconciler) transitionFailed(stats *TickStats, p Proposal, stage string, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProposalGone) {
		log.Printf("reconciler[%s]: proposal %s already completed", stats.ID, p.ID)
		return true
	}
	log.Printf("reconciler[%s]: %s proposal %s: %v", stats.ID, stage, p.ID, err)
	ReconcileErrors.WithLabelValues(stage).Inc()
	stats.Failed++
	return true
}
