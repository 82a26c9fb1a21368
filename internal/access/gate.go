package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/repository"
)

// RoleSource looks up a role for an identity. ok is false when the source
// has no record for the identity.
type RoleSource interface {
	LookupRole(ctx context.Context, identityID uuid.UUID) (role model.Role, ok bool, err error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

type TeamMemberReader interface {
	GetTeamMemberByUserID(ctx context.Context, userID uuid.UUID) (*model.TeamMemberRecord, error)
}

type profileSource struct {
	profiles ProfileReader
}

func ProfileSource(profiles ProfileReader) RoleSource {
	return profileSource{profiles: profiles}
}

func (s profileSource) LookupRole(ctx context.Context, id uuid.UUID) (model.Role, bool, error) {
	profile, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.RoleNone, false, nil
		}
		return model.RoleNone, false, err
	}
	return activeRole(profile.Role, profile.Status), true, nil
}

type teamMemberSource struct {
	members TeamMemberReader
}

func TeamMemberSource(members TeamMemberReader) RoleSource {
	return teamMemberSource{members: members}
}

func (s teamMemberSource) LookupRole(ctx context.Context, id uuid.UUID) (model.Role, bool, error) {
	member, err := s.members.GetTeamMemberByUserID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.RoleNone, false, nil
		}
		return model.RoleNone, false, err
	}
	return activeRole(member.Role, member.Status), true, nil
}

func activeRole(role model.Role, status model.ProfileStatus) model.Role {
	if status != model.ProfileStatusActive || !role.Valid() {
		return model.RoleNone
	}
	return role
}

// Gate resolves identities to roles by consulting its sources in order. The
// first source holding a record decides, even when that record grants no role.
type Gate struct {
	sources []RoleSource
}

func NewGate(sources ...RoleSource) *Gate {
	return &Gate{sources: sources}
}

func (g *Gate) ResolveRole(ctx context.Context, identityID uuid.UUID) (model.Role, error) {
	if identityID == uuid.Nil {
		return model.RoleNone, nil
	}
	for _, source := range g.sources {
		role, ok, err := source.LookupRole(ctx, identityID)
		if err != nil {
			return model.RoleNone, err
		}
		if ok {
			return role, nil
		}
	}
	return model.RoleNone, nil
}

// Resolve returns the access level of an identity. A nil identity is
// unauthenticated.
func (g *Gate) Resolve(ctx context.Context, identity *model.Identity) (model.Access, error) {
	if identity == nil {
		return model.Access{Role: model.RoleNone}, nil
	}
	role, err := g.ResolveRole(ctx, identity.ID)
	if err != nil {
		return model.Access{}, err
	}
	return model.Access{Role: role, CanEdit: role.CanEdit()}, nil
}
