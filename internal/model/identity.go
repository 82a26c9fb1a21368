package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleNone       Role = ""
	RoleAdmin      Role = "admin"
	RoleTeamMember Role = "team_member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeamMember
}

func (r Role) CanEdit() bool {
	return r.Valid()
}

type ProfileStatus string

const (
	ProfileStatusPending ProfileStatus = "pending"
	ProfileStatusActive  ProfileStatus = "active"
)

type Identity struct {
	ID    uuid.UUID
	Email string
}

type Profile struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         Role
	Status       ProfileStatus
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TeamMemberRecord struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Email     string
	Name      string
	Role      Role
	Status    ProfileStatus
	Bio       string
	Image     string
	CreatedAt time.Time
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) CanEdit() bool {
	return p.Role.CanEdit()
}

type Access struct {
	Role    Role `json:"role"`
	CanEdit bool `json:"can_edit"`
}
