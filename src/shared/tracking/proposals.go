package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrConflict means an Open proposal already exists for the same scope and target.
	ErrConflict = errors.New("tracking: an open proposal already exists for this target")
	// ErrProposalNotFound is returned by lookups for an id or target with no Open proposal.
	ErrProposalNotFound = errors.New("tracking: proposal not found")
)

// ProposalManager is the durable set of Open proposals. A proposal leaves Open by being
// deleted; nothing else is ever written back.
type ProposalManager struct {
	db *gorm.DB
}

// NewProposalManager creates a new proposal store
func NewProposalManager(db *gorm.DB) *ProposalManager {
	return &ProposalManager{db: db}
}

// Put inserts p unless an Open proposal for the same (scope, name, author) or the same id
// exists, in which case ErrConflict is returned. The check and the insert are one statement.
func (m *ProposalManager) Put(ctx context.Context, p Proposal) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("put proposal: id is required")
	}
	if strings.TrimSpace(p.ScopeID) == "" {
		return ErrInvalidScope
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("put proposal %s: invalid kind %q", p.ID, p.Kind)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	rec := newProposalRecord(p)
	res := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("put proposal %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ListOpen returns every Open proposal, oldest first.
func (m *ProposalManager) ListOpen(ctx context.Context) ([]Proposal, error) {
	return m.list(m.db.WithContext(ctx))
}

// ListOpenByScope returns the Open proposals of one scope, oldest first.
func (m *ProposalManager) ListOpenByScope(ctx context.Context, scopeID string) ([]Proposal, error) {
	return m.list(m.db.WithContext(ctx).Where("scope_id = ?", scopeID))
}

func (m *ProposalManager) list(q *gorm.DB) ([]Proposal, error) {
	var rows []ProposalRecord
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}

	out := make([]Proposal, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.proposal())
	}
	return out, nil
}

// Get loads a single Open proposal by id.
func (m *ProposalManager) Get(ctx context.Context, id string) (Proposal, error) {
	var row ProposalRecord
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Proposal{}, ErrProposalNotFound
	}
	if err != nil {
		return Proposal{}, fmt.Errorf("get proposal %s: %w", id, err)
	}
	return row.proposal(), nil
}

// FindOpen returns the Open proposal targeting (name, author) in a scope.
func (m *ProposalManager) FindOpen(ctx context.Context, scopeID, name, author string) (Proposal, error) {
	var row ProposalRecord
	err := m.db.WithContext(ctx).
		Where("scope_id = ? AND target_name = ? AND target_author = ?", scopeID, name, author).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Proposal{}, ErrProposalNotFound
	}
	if err != nil {
		return Proposal{}, fmt.Errorf("find proposal: %w", err)
	}
	return row.proposal(), nil
}

// Remove deletes a proposal. Removing an unknown id is not an error.
func (m *ProposalManager) Remove(ctx context.Context, id string) error {
	if _, err := deleteProposal(m.db.WithContext(ctx), id); err != nil {
		return fmt.Errorf("remove proposal %s: %w", id, err)
	}
	return nil
}

// deleteProposal reports whether a row was actually removed.
func deleteProposal(tx *gorm.DB, id string) (bool, error) {
	res := tx.Where("id = ?", id).Delete(&ProposalRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
