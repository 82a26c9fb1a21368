package content

import (
	"time"

	"github.com/google/uuid"
)

// SaveStatus follows idle -> saving -> saved -> idle, or saving -> error,
// which returns to idle on the next edit.
type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

type Snapshot struct {
	Status      SaveStatus    `json:"status"`
	Dirty       bool          `json:"dirty"`
	Saving      bool          `json:"saving"`
	Version     int           `json:"version"`
	ProposalID  *uuid.UUID    `json:"proposal_id,omitempty"`
	ViewToken   string        `json:"view_token,omitempty"`
	ReadOnly    bool          `json:"read_only"`
	EditMode    bool          `json:"edit_mode"`
	LastError   string        `json:"last_error,omitempty"`
	LastNotice  *Notification `json:"last_notice,omitempty"`
	LastSavedAt *time.Time    `json:"last_saved_at,omitempty"`
}
