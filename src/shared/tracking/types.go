package tracking

import (
	"fmt"
	"strings"
	"time"
)

// MaxTrackedEntries bounds the watch-list of a single scope.
const MaxTrackedEntries = 25

// CatalogEntry is one row of the external leaderboard snapshot.
type CatalogEntry struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	Badge  string `json:"badge"`
}

// Tracked converts a catalog row into the value stored on a watch-list.
func (e CatalogEntry) Tracked() TrackedEntry {
	return TrackedEntry{Name: e.Name, Author: e.Author, Badge: e.Badge}
}

// Label renders the entry as "badge name (author)".
func (e CatalogEntry) Label() string {
	return e.Tracked().Label()
}

// TrackedEntry is an entity a scope watches. Two entries with identical fields are the same item.
type TrackedEntry struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	Badge  string `json:"badge"`
}

// Label renders the entry as "badge name (author)".
func (e TrackedEntry) Label() string {
	name := e.Name
	if e.Badge != "" {
		name = e.Badge + " " + name
	}
	if e.Author == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, e.Author)
}

// sameBot reports whether two entries name the same bot, ignoring badge and case.
func sameBot(a TrackedEntry, name, author string) bool {
	return strings.EqualFold(a.Name, name) && strings.EqualFold(a.Author, author)
}

// ProposalKind is the change a vote asks for.
type ProposalKind string

const (
	ProposalAdd    ProposalKind = "add"
	ProposalRemove ProposalKind = "remove"
)

// Valid reports whether k is one of the supported kinds.
func (k ProposalKind) Valid() bool {
	return k == ProposalAdd || k == ProposalRemove
}

// ParseProposalKind accepts "add" or "remove" in any case.
func ParseProposalKind(s string) (ProposalKind, error) {
	k := ProposalKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown proposal kind %q", s)
	}
	return k, nil
}

// ProposalStatus is only ever Open in storage; the terminal values exist in memory while an
// outcome is being reported.
type ProposalStatus string

const (
	StatusOpen      ProposalStatus = "open"
	StatusApplied   ProposalStatus = "applied"
	StatusRejected  ProposalStatus = "rejected"
	StatusAbandoned ProposalStatus = "abandoned"
)

// Proposal is a pending vote-backed request to add or remove a tracked entry.
type Proposal struct {
	ID              string         `json:"id"`
	Kind            ProposalKind   `json:"kind"`
	Target          CatalogEntry   `json:"target"`
	ScopeID         string         `json:"scopeId"`
	NotifyChannelID string         `json:"channelId"`
	CreatedAt       time.Time      `json:"createdAt"`
	Status          ProposalStatus `json:"status"`
}

// TrackedEntryRecord is the persisted form of one watch-list position.
type TrackedEntryRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ScopeID   string `gorm:"size:64;not null;uniqueIndex:ux_tracked_scope_entry,priority:1;index:idx_tracked_scope_position,priority:1"`
	Position  int    `gorm:"not null;index:idx_tracked_scope_position,priority:2"`
	Name      string `gorm:"size:128;not null;uniqueIndex:ux_tracked_scope_entry,priority:2"`
	Author    string `gorm:"size:128;not null;uniqueIndex:ux_tracked_scope_entry,priority:3"`
	Badge     string `gorm:"size:32;not null;uniqueIndex:ux_tracked_scope_entry,priority:4"`
	UpdatedAt time.Time
}

// TableName implements the gorm tabler interface.
func (TrackedEntryRecord) TableName() string { return "tracked_entries" }

// ProposalRecord is the persisted form of an Open proposal. The unique index on
// (scope, name, author) is what makes Put an atomic check-and-insert.
type ProposalRecord struct {
	ID              string    `gorm:"primaryKey;size:64"`
	Kind            string    `gorm:"size:16;not null"`
	ScopeID         string    `gorm:"size:64;not null;uniqueIndex:ux_proposal_scope_target,priority:1"`
	TargetName      string    `gorm:"size:128;not null;uniqueIndex:ux_proposal_scope_target,priority:2"`
	TargetAuthor    string    `gorm:"size:128;not null;uniqueIndex:ux_proposal_scope_target,priority:3"`
	TargetBadge     string    `gorm:"size:32;not null"`
	NotifyChannelID string    `gorm:"size:64;not null"`
	CreatedAt       time.Time `gorm:"index"`
}

// TableName implements the gorm tabler interface.
func (ProposalRecord) TableName() string { return "proposals" }

func newProposalRecord(p Proposal) ProposalRecord {
	return ProposalRecord{
		ID:              p.ID,
		Kind:            string(p.Kind),
		ScopeID:         p.ScopeID,
		TargetName:      p.Target.Name,
		TargetAuthor:    p.Target.Author,
		TargetBadge:     p.Target.Badge,
		NotifyChannelID: p.NotifyChannelID,
		CreatedAt:       p.CreatedAt,
	}
}

func (r ProposalRecord) proposal() Proposal {
	return Proposal{
		ID:   r.ID,
		Kind: ProposalKind(r.Kind),
		Target: CatalogEntry{
			Name:   r.TargetName,
			Author: r.TargetAuthor,
			Badge:  r.TargetBadge,
		},
		ScopeID:         r.ScopeID,
		NotifyChannelID: r.NotifyChannelID,
		CreatedAt:       r.CreatedAt,
		Status:          StatusOpen,
	}
}

// Models lists the tables owned by this package, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&TrackedEntryRecord{}, &ProposalRecord{}}
}
