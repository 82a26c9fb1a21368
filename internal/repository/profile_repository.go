package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/proposals/internal/model"
)

type profileRow struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	Name         string    `gorm:"column:name"`
	Role         string    `gorm:"column:role;not null"`
	Status       string    `gorm:"column:status;not null"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (profileRow) TableName() string { return "profiles" }

func (r profileRow) toModel() *model.Profile {
	return &model.Profile{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		Role:         model.Role(r.Role),
		Status:       model.ProfileStatus(r.Status),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type teamMemberRow struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	Email     string     `gorm:"column:email;not null"`
	Name      string     `gorm:"column:name"`
	Role      string     `gorm:"column:role;not null"`
	Status    string     `gorm:"column:status;not null"`
	Bio       string     `gorm:"column:bio"`
	Image     string     `gorm:"column:image"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (teamMemberRow) TableName() string { return "team_members" }

func (r teamMemberRow) toModel() *model.TeamMemberRecord {
	return &model.TeamMemberRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      model.Role(r.Role),
		Status:    model.ProfileStatus(r.Status),
		Bio:       r.Bio,
		Image:     r.Image,
		CreatedAt: r.CreatedAt,
	}
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var row profileRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *ProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var row profileRow
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *ProfileRepository) GetTeamMemberByUserID(ctx context.Context, userID uuid.UUID) (*model.TeamMemberRecord, error) {
	var row teamMemberRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// CreateProfile inserts a profile together with its team member entry.
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile model.Profile, member *model.TeamMemberRecord) (*model.Profile, error) {
	now := time.Now().UTC()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	row := profileRow{
		ID:           profile.ID,
		Email:        normalizeEmail(profile.Email),
		Name:         profile.Name,
		Role:         string(profile.Role),
		Status:       string(profile.Status),
		PasswordHash: profile.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&profileRow{}).Where("email = ?", row.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if member == nil {
			return nil
		}
		userID := row.ID
		memberRow := teamMemberRow{
			ID:        uuid.New(),
			UserID:    &userID,
			Email:     row.Email,
			Name:      member.Name,
			Role:      string(member.Role),
			Status:    row.Status,
			Bio:       member.Bio,
			Image:     member.Image,
			CreatedAt: now,
		}
		return tx.Create(&memberRow).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return row.toModel(), nil
}

// ActivateProfile sets the password of a pending profile and marks it and its
// team member entry active.
func (r *ProfileRepository) ActivateProfile(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&profileRow{}).
			Where("id = ? AND status = ?", id, string(model.ProfileStatusPending)).
			Updates(map[string]any{
				"status":        string(model.ProfileStatusActive),
				"password_hash": passwordHash,
				"updated_at":    time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&teamMemberRow{}).
			Where("user_id = ?", id).
			Update("status", string(model.ProfileStatusActive)).Error
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
