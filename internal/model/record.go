package model

import (
	"time"

	"github.com/google/uuid"
)

const ContentTypeProposal = "proposal"

type ProposalRecord struct {
	ID             uuid.UUID
	Version        int
	Author         string
	IsActive       bool
	ContentType    string
	ViewToken      string
	ShareExpiresAt *time.Time
	UpdatedAt      time.Time
	Content        ContentTree
}

// Expired reports whether the share link has an expiry that lies before now.
func (r ProposalRecord) Expired(now time.Time) bool {
	return r.ShareExpiresAt != nil && !r.ShareExpiresAt.After(now)
}
