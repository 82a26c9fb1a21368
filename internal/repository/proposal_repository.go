package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/proposals/internal/model"
)

var ErrExpired = fmt.Errorf("%w: share link expired", ErrNotFound)

// ProposalRepository is a stateless gateway to the proposals table. Updates
// overwrite every section column plus version and timestamp without comparing
// the stored version, so concurrent writers race and the last one wins.
type ProposalRepository struct {
	db       *gorm.DB
	shareTTL time.Duration
	now      func() time.Time
}

func NewProposalRepository(db *gorm.DB, shareTTL time.Duration) *ProposalRepository {
	return &ProposalRepository{db: db, shareTTL: shareTTL, now: time.Now}
}

// LoadActive returns the most recently updated active proposal, or nil when
// there is none.
func (r *ProposalRepository) LoadActive(ctx context.Context) (*model.ProposalRecord, error) {
	var row proposalRow
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND content_type = ?", true, model.ContentTypeProposal).
		Order("updated_at DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.toModel()
}

func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProposalRecord, error) {
	var row proposalRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel()
}

func (r *ProposalRepository) Create(ctx context.Context, content model.ContentTree, author string) (*model.ProposalRecord, error) {
	now := r.now().UTC()
	row := proposalRow{
		ID:          uuid.New(),
		Version:     1,
		Author:      author,
		IsActive:    true,
		ContentType: model.ContentTypeProposal,
		ViewToken:   newViewToken(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.shareTTL > 0 {
		expires := now.Add(r.shareTTL)
		row.ShareExpiresAt = &expires
	}
	if err := row.setContent(content); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}
	return row.toModel()
}

func (r *ProposalRepository) Update(ctx context.Context, id uuid.UUID, content model.ContentTree, nextVersion int) (*model.ProposalRecord, error) {
	var row proposalRow
	if err := row.setContent(content); err != nil {
		return nil, err
	}
	values := row.sectionValues()
	values["version"] = nextVersion
	values["updated_at"] = r.now().UTC()

	res := r.db.WithContext(ctx).Model(&proposalRow{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("update proposal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// FindByToken resolves a public share token. Expired links report ErrExpired,
// which also matches ErrNotFound.
func (r *ProposalRepository) FindByToken(ctx context.Context, token string) (*model.ProposalRecord, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var row proposalRow
	err := r.db.WithContext(ctx).
		Where("view_token = ? AND content_type = ?", token, model.ContentTypeProposal).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	record, err := row.toModel()
	if err != nil {
		return nil, err
	}
	if record.Expired(r.now()) {
		return nil, ErrExpired
	}
	return record, nil
}

// RotateShareToken issues a new view token, invalidating the previous link.
func (r *ProposalRepository) RotateShareToken(ctx context.Context, id uuid.UUID) (*model.ProposalRecord, error) {
	values := map[string]any{"view_token": newViewToken()}
	if r.shareTTL > 0 {
		values["share_expires_at"] = r.now().UTC().Add(r.shareTTL)
	} else {
		values["share_expires_at"] = nil
	}
	res := r.db.WithContext(ctx).Model(&proposalRow{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("rotate share token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func newViewToken() string {
	return uuid.NewString()
}
