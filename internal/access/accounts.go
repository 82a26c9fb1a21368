package access

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurpe/proposals/internal/auth"
	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("admin role required")
	ErrValidation         = errors.New("validation failed")
	ErrInviteInvalid      = errors.New("invitation is invalid or already used")
	ErrAlreadyInvited     = errors.New("email already has an account")
)

type AccountStore interface {
	ProfileReader
	TeamMemberReader
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	CreateProfile(ctx context.Context, profile model.Profile, member *model.TeamMemberRecord) (*model.Profile, error)
	ActivateProfile(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type AccountsConfig struct {
	AccessTTL     time.Duration
	InviteTTL     time.Duration
	InviteBaseURL string
	BcryptCost    int
}

type Accounts struct {
	store    AccountStore
	gate     *Gate
	tokens   *auth.Parser
	mailer   Mailer
	cfg      AccountsConfig
	log      zerolog.Logger
	validate *validator.Validate
}

func NewAccounts(store AccountStore, gate *Gate, tokens *auth.Parser, mailer Mailer, cfg AccountsConfig, log zerolog.Logger) *Accounts {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Accounts{
		store:    store,
		gate:     gate,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
		validate: validator.New(),
	}
}

type Session struct {
	Token     string          `json:"access_token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Principal model.Principal `json:"-"`
	Access    model.Access    `json:"access"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *Accounts) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, ErrInvalidCredentials
	}
	profile, err := a.store.GetProfileByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if profile.Status != model.ProfileStatusActive || profile.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a.issueSession(ctx, profile.ID, profile.Email)
}

type InviteRequest struct {
	Email string     `json:"email" validate:"required,email"`
	Role  model.Role `json:"role" validate:"required,oneof=admin team_member"`
	Name  string     `json:"name" validate:"required"`
	Bio   string     `json:"bio"`
	Image string     `json:"image" validate:"omitempty,url"`
}

type InviteResult struct {
	ProfileID uuid.UUID `json:"profile_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendInvite creates a pending account for the invitee and mails the
// acceptance link. Only admins may invite.
func (a *Accounts) SendInvite(ctx context.Context, inviter model.Principal, req InviteRequest) (*InviteResult, error) {
	if !inviter.IsAdmin() {
		return nil, ErrForbidden
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := a.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}

	profile, err := a.store.CreateProfile(ctx, model.Profile{
		Email:  req.Email,
		Name:   req.Name,
		Role:   req.Role,
		Status: model.ProfileStatusPending,
	}, &model.TeamMemberRecord{
		Name:  req.Name,
		Role:  req.Role,
		Bio:   req.Bio,
		Image: req.Image,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyInvited
		}
		return nil, err
	}

	token, expiresAt, err := a.tokens.Issue(profile.ID, profile.Email, auth.PurposeInvite, a.cfg.InviteTTL)
	if err != nil {
		return nil, err
	}
	inv := Invitation{
		Email:     profile.Email,
		Name:      profile.Name,
		Role:      profile.Role,
		Link:      a.inviteLink(token),
		ExpiresAt: expiresAt,
	}
	if err := a.mailer.SendInvitation(ctx, inv); err != nil {
		return nil, err
	}
	a.log.Info().
		Str("inviter", inviter.UserID.String()).
		Str("profile_id", profile.ID.String()).
		Str("role", string(profile.Role)).
		Msg("invitation sent")
	return &InviteResult{ProfileID: profile.ID, ExpiresAt: expiresAt}, nil
}

func (a *Accounts) inviteLink(token string) string {
	base := strings.TrimRight(a.cfg.InviteBaseURL, "/")
	if base == "" {
		base = "/accept-invite"
	}
	return base + "?token=" + url.QueryEscape(token)
}

type AcceptInviteRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// AcceptInvite activates the pending account referenced by the invite token.
// Input is validated before any storage access.
func (a *Accounts) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (*Session, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}
	claims, err := a.tokens.Parse(req.Token, auth.PurposeInvite)
	if err != nil {
		return nil, ErrInviteInvalid
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.ActivateProfile(ctx, claims.UserID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}
	return a.issueSession(ctx, claims.UserID, claims.Email)
}

type BootstrapRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"required"`
}

// BootstrapAdmin creates an active admin account directly.
func (a *Accounts) BootstrapAdmin(ctx context.Context, req BootstrapRequest) (*model.Profile, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	profile, err := a.store.CreateProfile(ctx, model.Profile{
		Email:        req.Email,
		Name:         req.Name,
		Role:         model.RoleAdmin,
		Status:       model.ProfileStatusActive,
		PasswordHash: string(hash),
	}, &model.TeamMemberRecord{Name: req.Name, Role: model.RoleAdmin})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyInvited
		}
		return nil, err
	}
	return profile, nil
}

func (a *Accounts) issueSession(ctx context.Context, id uuid.UUID, email string) (*Session, error) {
	access, err := a.gate.Resolve(ctx, &model.Identity{ID: id, Email: email})
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := a.tokens.Issue(id, email, auth.PurposeAccess, a.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: model.Principal{UserID: id, Email: email, Role: access.Role},
		Access:    access,
	}, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		case "email":
			parts = append(parts, "email is malformed")
		case "min":
			parts = append(parts, strings.ToLower(fe.Field())+" must be at least "+fe.Param()+" characters")
		case "eqfield":
			parts = append(parts, "passwords do not match")
		case "oneof":
			parts = append(parts, strings.ToLower(fe.Field())+" must be one of "+fe.Param())
		default:
			parts = append(parts, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
