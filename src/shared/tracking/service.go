package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultVoteDuration is how long a proposal's vote stays open.
const DefaultVoteDuration = time.Hour

// ProposeStatus is the result class of ProposeChange.
type ProposeStatus int

const (
	ProposeCreated ProposeStatus = iota
	ProposeAmbiguous
	ProposeNotFound
	ProposeDuplicate
)

func (s ProposeStatus) String() string {
	switch s {
	case ProposeCreated:
		return "created"
	case ProposeAmbiguous:
		return "ambiguous"
	case ProposeDuplicate:
		return "duplicate"
	default:
		return "not_found"
	}
}

// ProposeResult is what the requester is told after asking for a vote.
type ProposeResult struct {
	Status ProposeStatus
	// VoteID is set when Status is ProposeCreated.
	VoteID     string
	Target     CatalogEntry
	Input      string
	Candidates []CatalogEntry
}

// RemovedEntry is an entry taken off the list together with its former 1-based position.
type RemovedEntry struct {
	Index int
	Entry TrackedEntry
}

// AmbiguousName is an input that matched several catalog rows.
type AmbiguousName struct {
	Input      string
	Candidates []CatalogEntry
}

// MutationReport lists what happened to every name or index of a direct command.
type MutationReport struct {
	Kind           ProposalKind
	Added          []TrackedEntry
	Removed        []RemovedEntry
	AlreadyTracked []TrackedEntry
	NotTracked     []CatalogEntry
	NotFound       []string
	Ambiguous      []AmbiguousName
	LimitReached   []TrackedEntry
	InvalidIndices []string
	// Total is the list length after the command.
	Total int
}

// Changed reports whether the command modified the list.
func (r MutationReport) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Service is the command-facing API over the stores. It never caches store contents:
// each call reads what it needs before acting.
type Service struct {
	catalog      CatalogSource
	watchlist    *WatchlistManager
	proposals    *ProposalManager
	host         VoteHost
	voteDuration time.Duration
}

// NewService wires the command API.
func NewService(catalog CatalogSource, watchlist *WatchlistManager, proposals *ProposalManager, host VoteHost, voteDuration time.Duration) *Service {
	if voteDuration <= 0 {
		voteDuration = DefaultVoteDuration
	}
	return &Service{
		catalog:      catalog,
		watchlist:    watchlist,
		proposals:    proposals,
		host:         host,
		voteDuration: voteDuration,
	}
}

// ListTracked returns the scope's watch-list.
func (s *Service) ListTracked(ctx context.Context, scopeID string) ([]TrackedEntry, error) {
	return s.watchlist.Get(ctx, scopeID)
}

// ListOpenProposals returns the scope's pending votes.
func (s *Service) ListOpenProposals(ctx context.Context, scopeID string) ([]Proposal, error) {
	if strings.TrimSpace(scopeID) == "" {
		return nil, ErrInvalidScope
	}
	return s.proposals.ListOpenByScope(ctx, scopeID)
}

// ProposeChange resolves rawName and opens a vote in channelID asking whether to apply kind
// to it. At most one vote per target and scope can be open.
func (s *Service) ProposeChange(ctx context.Context, scopeID, channelID string, kind ProposalKind, rawName string) (ProposeResult, error) {
	if strings.TrimSpace(scopeID) == "" {
		return ProposeResult{}, ErrInvalidScope
	}
	if !kind.Valid() {
		return ProposeResult{}, fmt.Errorf("propose: invalid kind %q", kind)
	}

	catalog, err := s.catalog.FetchCatalog(ctx)
	if err != nil {
		return ProposeResult{}, fmt.Errorf("propose: fetch catalog: %w", err)
	}

	res := Resolve(rawName, catalog)
	result := ProposeResult{Input: res.Input, Candidates: res.Candidates}
	switch res.Kind {
	case ResolveNotFound:
		s.dropSnapshot(ctx)
		result.Status = ProposeNotFound
		return result, nil
	case ResolveAmbiguous:
		result.Status = ProposeAmbiguous
		return result, nil
	}
	result.Target = res.Match

	// Cheap pre-check so an obvious duplicate does not post a vote first. Put below is
	// the authoritative check.
	if _, err := s.proposals.FindOpen(ctx, scopeID, res.Match.Name, res.Match.Author); err == nil {
		result.Status = ProposeDuplicate
		return result, nil
	} else if !errors.Is(err, ErrProposalNotFound) {
		return ProposeResult{}, fmt.Errorf("propose: %w", err)
	}

	voteID, err := s.host.CreateVote(ctx, channelID, Question(kind, res.Match), s.voteDuration)
	if err != nil {
		return ProposeResult{}, fmt.Errorf("propose: create vote: %w", err)
	}

	p := Proposal{
		ID:              voteID,
		Kind:            kind,
		Target:          res.Match,
		ScopeID:         scopeID,
		NotifyChannelID: channelID,
		CreatedAt:       time.Now(),
		Status:          StatusOpen,
	}
	if err := s.proposals.Put(ctx, p); err != nil {
		if cerr := s.host.CancelVote(context.WithoutCancel(ctx), channelID, voteID); cerr != nil {
			log.Printf("tracking: cancel orphaned vote %s: %v", voteID, cerr)
		}
		if errors.Is(err, ErrConflict) {
			result.Status = ProposeDuplicate
			return result, nil
		}
		return ProposeResult{}, fmt.Errorf("propose: %w", err)
	}

	ProposalsCreated.WithLabelValues(string(kind)).Inc()
	log.Printf("tracking: opened %s proposal %s for %s in scope %s", kind, voteID, res.Match.Label(), scopeID)

	result.Status = ProposeCreated
	result.VoteID = voteID
	return result, nil
}

// DirectMutate changes the watch-list immediately without a vote. For adds every raw name
// is resolved against the catalog. For removes a token is either a 1-based index, an index
// range ("5-8", "13..15") or a name resolved against the catalog. The list is read once and
// replaced at most once.
func (s *Service) DirectMutate(ctx context.Context, scopeID string, kind ProposalKind, rawNames []string) (MutationReport, error) {
	if strings.TrimSpace(scopeID) == "" {
		return MutationReport{}, ErrInvalidScope
	}

	var tokens []string
	for _, raw := range rawNames {
		if t := strings.TrimSpace(raw); t != "" {
			tokens = append(tokens, t)
		}
	}

	current, err := s.watchlist.Get(ctx, scopeID)
	if err != nil {
		return MutationReport{}, err
	}

	var (
		report MutationReport
		next   []TrackedEntry
	)
	switch kind {
	case ProposalAdd:
		report, next, err = s.addEntries(ctx, current, tokens)
	case ProposalRemove:
		report, next, err = s.removeEntries(ctx, current, tokens)
	default:
		return MutationReport{}, fmt.Errorf("direct mutate: invalid kind %q", kind)
	}
	if err != nil {
		return MutationReport{}, err
	}
	report.Kind = kind
	report.Total = len(current)
	if len(report.NotFound) > 0 {
		s.dropSnapshot(ctx)
	}

	if report.Changed() {
		if err := s.watchlist.Replace(ctx, scopeID, next); err != nil {
			return MutationReport{}, err
		}
		report.Total = len(next)
	}

	countMutations(report)
	return report, nil
}

// dropSnapshot discards a cached catalog after a lookup miss so the next command sees
// bots that joined the leaderboard since the snapshot was taken.
func (s *Service) dropSnapshot(ctx context.Context) {
	inv, ok := s.catalog.(CatalogInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		log.Printf("tracking: drop catalog snapshot: %v", err)
	}
}

func (s *Service) addEntries(ctx context.Context, current []TrackedEntry, tokens []string) (MutationReport, []TrackedEntry, error) {
	var report MutationReport
	if len(tokens) == 0 {
		return report, current, nil
	}

	catalog, err := s.catalog.FetchCatalog(ctx)
	if err != nil {
		return report, nil, fmt.Errorf("direct add: fetch catalog: %w", err)
	}

	next := append([]TrackedEntry(nil), current...)
	for _, token := range tokens {
		res := Resolve(token, catalog)
		switch res.Kind {
		case ResolveNotFound:
			report.NotFound = append(report.NotFound, res.Input)
			continue
		case ResolveAmbiguous:
			report.Ambiguous = append(report.Ambiguous, AmbiguousName{Input: res.Input, Candidates: res.Candidates})
			continue
		}

		entry := res.Match.Tracked()
		switch {
		case containsEntry(next, entry):
			report.AlreadyTracked = append(report.AlreadyTracked, entry)
		case len(next) >= MaxTrackedEntries:
			report.LimitReached = append(report.LimitReached, entry)
		default:
			next = append(next, entry)
			report.Added = append(report.Added, entry)
		}
	}
	return report, next, nil
}

func (s *Service) removeEntries(ctx context.Context, current []TrackedEntry, tokens []string) (MutationReport, []TrackedEntry, error) {
	var (
		report  MutationReport
		catalog []CatalogEntry
		fetched bool
		invalid []indexSpan
	)
	selected := make(map[int]bool)

	for _, token := range tokens {
		if span, ok := parseIndexToken(token); ok {
			valid, outside := span.clip(len(current))
			for i := valid.start; i <= valid.end; i++ {
				selected[i-1] = true
			}
			invalid = append(invalid, outside...)
			continue
		}

		if !fetched {
			var err error
			catalog, err = s.catalog.FetchCatalog(ctx)
			if err != nil {
				return report, nil, fmt.Errorf("direct remove: fetch catalog: %w", err)
			}
			fetched = true
		}

		res := Resolve(token, catalog)
		switch res.Kind {
		case ResolveNotFound:
			report.NotFound = append(report.NotFound, res.Input)
		case ResolveAmbiguous:
			report.Ambiguous = append(report.Ambiguous, AmbiguousName{Input: res.Input, Candidates: res.Candidates})
		default:
			idx := indexOfBot(current, res.Match.Name, res.Match.Author)
			if idx < 0 {
				report.NotTracked = append(report.NotTracked, res.Match)
				continue
			}
			selected[idx] = true
		}
	}

	report.InvalidIndices = formatSpans(invalid)

	next := make([]TrackedEntry, 0, len(current))
	for i, entry := range current {
		if selected[i] {
			report.Removed = append(report.Removed, RemovedEntry{Index: i + 1, Entry: entry})
			continue
		}
		next = append(next, entry)
	}
	return report, next, nil
}

func countMutations(r MutationReport) {
	kind := string(r.Kind)
	add := func(result string, n int) {
		if n > 0 {
			DirectMutations.WithLabelValues(kind, result).Add(float64(n))
		}
	}
	add("added", len(r.Added))
	add("removed", len(r.Removed))
	add("already_tracked", len(r.AlreadyTracked))
	add("not_tracked", len(r.NotTracked))
	add("not_found", len(r.NotFound))
	add("ambiguous", len(r.Ambiguous))
	add("limit_reached", len(r.LimitReached))
	add("invalid_index", len(r.InvalidIndices))
}

// indexSpan is an inclusive range of 1-based list positions. An empty span has start > end.
type indexSpan struct {
	start, end int
}

// parseIndexToken recognises "3", "5-8" and "13..15". Anything else is a name.
func parseIndexToken(token string) (indexSpan, bool) {
	token = strings.TrimSpace(token)
	if n, err := strconv.Atoi(token); err == nil {
		return indexSpan{start: n, end: n}, true
	}

	for _, sep := range []string{"..", "-"} {
		left, right, found := strings.Cut(token, sep)
		if !found {
			continue
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(left))
		end, err2 := strconv.Atoi(strings.TrimSpace(right))
		if err1 != nil || err2 != nil {
			return indexSpan{}, false
		}
		return indexSpan{start: start, end: end}, true
	}
	return indexSpan{}, false
}

// clip splits the span into the part inside [1, size] and the parts outside it.
func (s indexSpan) clip(size int) (indexSpan, []indexSpan) {
	if s.start > s.end {
		return indexSpan{start: 1, end: 0}, []indexSpan{s}
	}

	valid := indexSpan{start: max(s.start, 1), end: min(s.end, size)}
	var outside []indexSpan
	if s.start < 1 {
		outside = append(outside, indexSpan{start: s.start, end: min(s.end, 0)})
	}
	if s.end > size {
		outside = append(outside, indexSpan{start: max(s.start, size+1), end: s.end})
	}
	return valid, outside
}

func (s indexSpan) String() string {
	if s.start == s.end {
		return strconv.Itoa(s.start)
	}
	return fmt.Sprintf("%d-%d", s.start, s.end)
}

// formatSpans renders invalid spans sorted and without repeats.
func formatSpans(spans []indexSpan) []string {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	out := make([]string, 0, len(spans))
	seen := make(map[string]bool, len(spans))
	for _, s := range spans {
		label := s.String()
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
