package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/nurpe/proposals/internal/model"
)

type proposalRow struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Version        int            `gorm:"column:version;not null"`
	Author         string         `gorm:"column:author"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	ContentType    string         `gorm:"column:content_type;not null"`
	ViewToken      string         `gorm:"column:view_token;not null"`
	ShareExpiresAt *time.Time     `gorm:"column:share_expires_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime:false"`
	Cover          datatypes.JSON `gorm:"column:cover"`
	Letter         datatypes.JSON `gorm:"column:letter"`
	About          datatypes.JSON `gorm:"column:about"`
	HowWeWork      datatypes.JSON `gorm:"column:how_we_work"`
	Solutions      datatypes.JSON `gorm:"column:solutions"`
	Markets        datatypes.JSON `gorm:"column:markets"`
	Clients        datatypes.JSON `gorm:"column:clients"`
	Team           datatypes.JSON `gorm:"column:team"`
	Proposal       datatypes.JSON `gorm:"column:proposal"`
	Value          datatypes.JSON `gorm:"column:value"`
	Contact        datatypes.JSON `gorm:"column:contact"`
	Shapes         datatypes.JSON `gorm:"column:shapes"`
}

func (proposalRow) TableName() string { return "proposals" }

// columns maps each section to its column name and row field.
func (r *proposalRow) columns() []struct {
	section model.Section
	column  string
	value   *datatypes.JSON
} {
	return []struct {
		section model.Section
		column  string
		value   *datatypes.JSON
	}{
		{model.SectionCover, "cover", &r.Cover},
		{model.SectionLetter, "letter", &r.Letter},
		{model.SectionAbout, "about", &r.About},
		{model.SectionHowWeWork, "how_we_work", &r.HowWeWork},
		{model.SectionSolutions, "solutions", &r.Solutions},
		{model.SectionMarkets, "markets", &r.Markets},
		{model.SectionClients, "clients", &r.Clients},
		{model.SectionTeam, "team", &r.Team},
		{model.SectionProposal, "proposal", &r.Proposal},
		{model.SectionValue, "value", &r.Value},
		{model.SectionContact, "contact", &r.Contact},
		{model.SectionShapes, "shapes", &r.Shapes},
	}
}

func (r *proposalRow) setContent(tree model.ContentTree) error {
	for _, col := range r.columns() {
		section, err := tree.SectionPtr(col.section)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(section)
		if err != nil {
			return fmt.Errorf("encode %s: %w", col.section, err)
		}
		*col.value = datatypes.JSON(raw)
	}
	return nil
}

// sectionValues returns the column updates for every section.
func (r *proposalRow) sectionValues() map[string]any {
	values := make(map[string]any, len(model.Sections))
	for _, col := range r.columns() {
		values[col.column] = *col.value
	}
	return values
}

// toModel decodes the row over the default tree, so a null column or a
// missing key leaves the default in place and callers always see every section.
func (r *proposalRow) toModel() (*model.ProposalRecord, error) {
	tree := model.DefaultContent()
	for _, col := range r.columns() {
		raw := bytes.TrimSpace(*col.value)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		section, err := tree.SectionPtr(col.section)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, section); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.section, err)
		}
	}
	return &model.ProposalRecord{
		ID:             r.ID,
		Version:        r.Version,
		Author:         r.Author,
		IsActive:       r.IsActive,
		ContentType:    r.ContentType,
		ViewToken:      r.ViewToken,
		ShareExpiresAt: r.ShareExpiresAt,
		UpdatedAt:      r.UpdatedAt,
		Content:        tree,
	}, nil
}
