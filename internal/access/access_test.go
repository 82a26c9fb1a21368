package access

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurpe/proposals/internal/auth"
	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/repository"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]model.Profile
	members  map[uuid.UUID]model.TeamMemberRecord
	calls    int
	lookupFn func() error
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[uuid.UUID]model.Profile{},
		members:  map[uuid.UUID]model.TeamMemberRecord{},
	}
}

func (s *memStore) GetProfile(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.lookupFn != nil {
		if err := s.lookupFn(); err != nil {
			return nil, err
		}
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) GetProfileByEmail(_ context.Context, email string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, p := range s.profiles {
		if p.Email == strings.ToLower(email) {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetTeamMemberByUserID(_ context.Context, userID uuid.UUID) (*model.TeamMemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	m, ok := s.members[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) CreateProfile(_ context.Context, p model.Profile, member *model.TeamMemberRecord) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	p.Email = strings.ToLower(p.Email)
	for _, existing := range s.profiles {
		if existing.Email == p.Email {
			return nil, repository.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.profiles[p.ID] = p
	if member != nil {
		id := p.ID
		m := *member
		m.ID = uuid.New()
		m.UserID = &id
		m.Email = p.Email
		m.Status = p.Status
		s.members[p.ID] = m
	}
	return &p, nil
}

func (s *memStore) ActivateProfile(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	p, ok := s.profiles[id]
	if !ok || p.Status != model.ProfileStatusPending {
		return repository.ErrNotFound
	}
	p.Status = model.ProfileStatusActive
	p.PasswordHash = hash
	s.profiles[id] = p
	if m, ok := s.members[id]; ok {
		m.Status = model.ProfileStatusActive
		s.members[id] = m
	}
	return nil
}

type recordingMailer struct {
	sent []Invitation
	err  error
}

func (m *recordingMailer) SendInvitation(_ context.Context, inv Invitation) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, inv)
	return nil
}

func newAccounts(t *testing.T) (*Accounts, *memStore, *recordingMailer) {
	t.Helper()
	store := newMemStore()
	mailer := &recordingMailer{}
	gate := NewGate(ProfileSource(store), TeamMemberSource(store))
	accounts := NewAccounts(store, gate, auth.NewParser("test-secret"), mailer, AccountsConfig{
		AccessTTL:     time.Hour,
		InviteTTL:     24 * time.Hour,
		InviteBaseURL: "https://proposals.example/accept/",
		BcryptCost:    bcrypt.MinCost,
	}, zerolog.Nop())
	return accounts, store, mailer
}

func TestGateResolvesInOrder(t *testing.T) {
	store := newMemStore()
	gate := NewGate(ProfileSource(store), TeamMemberSource(store))
	ctx := context.Background()

	admin := uuid.New()
	store.profiles[admin] = model.Profile{ID: admin, Role: model.RoleAdmin, Status: model.ProfileStatusActive}
	store.members[admin] = model.TeamMemberRecord{Role: model.RoleTeamMember, Status: model.ProfileStatusActive}

	memberOnly := uuid.New()
	store.members[memberOnly] = model.TeamMemberRecord{Role: model.RoleTeamMember, Status: model.ProfileStatusActive}

	role, err := gate.ResolveRole(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)

	role, err = gate.ResolveRole(ctx, memberOnly)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeamMember, role)

	role, err = gate.ResolveRole(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.RoleNone, role)
}

func TestGatePendingProfileHasNoRole(t *testing.T) {
	store := newMemStore()
	gate := NewGate(ProfileSource(store), TeamMemberSource(store))
	id := uuid.New()
	store.profiles[id] = model.Profile{ID: id, Role: model.RoleAdmin, Status: model.ProfileStatusPending}
	store.members[id] = model.TeamMemberRecord{Role: model.RoleTeamMember, Status: model.ProfileStatusActive}

	access, err := gate.Resolve(context.Background(), &model.Identity{ID: id})
	require.NoError(t, err)
	assert.Equal(t, model.Access{Role: model.RoleNone, CanEdit: false}, access)
}

func TestGateUnauthenticated(t *testing.T) {
	gate := NewGate(ProfileSource(newMemStore()))
	access, err := gate.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, access.CanEdit)
	assert.Equal(t, model.RoleNone, access.Role)
}

func TestGatePropagatesLookupErrors(t *testing.T) {
	store := newMemStore()
	boom := errors.New("connection refused")
	store.lookupFn = func() error { return boom }
	gate := NewGate(ProfileSource(store), TeamMemberSource(store))

	_, err := gate.ResolveRole(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}

func TestInviteRequiresAdmin(t *testing.T) {
	accounts, store, mailer := newAccounts(t)
	member := model.Principal{UserID: uuid.New(), Role: model.RoleTeamMember}

	_, err := accounts.SendInvite(context.Background(), member, InviteRequest{
		Email: "new@example.com", Role: model.RoleTeamMember, Name: "New",
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, store.profiles)
	assert.Empty(t, mailer.sent)
}

func TestInviteValidation(t *testing.T) {
	accounts, store, _ := newAccounts(t)
	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}

	cases := []struct {
		name string
		req  InviteRequest
		msg  string
	}{
		{"missing email", InviteRequest{Role: model.RoleTeamMember, Name: "A"}, "email is required"},
		{"malformed email", InviteRequest{Email: "nope", Role: model.RoleTeamMember, Name: "A"}, "email is malformed"},
		{"missing name", InviteRequest{Email: "a@example.com", Role: model.RoleAdmin, Name: "  "}, "name is required"},
		{"bad role", InviteRequest{Email: "a@example.com", Role: "owner", Name: "A"}, "role must be one of"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := accounts.SendInvite(context.Background(), admin, tc.req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
	assert.Zero(t, store.calls)
}

func TestInviteAndAccept(t *testing.T) {
	accounts, store, mailer := newAccounts(t)
	ctx := context.Background()
	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}

	res, err := accounts.SendInvite(ctx, admin, InviteRequest{
		Email: "Grace@Example.com", Role: model.RoleTeamMember, Name: "Grace", Bio: "Engineer",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.True(t, strings.HasPrefix(mailer.sent[0].Link, "https://proposals.example/accept?token="))
	assert.Equal(t, model.ProfileStatusPending, store.profiles[res.ProfileID].Status)

	role, err := accounts.gate.ResolveRole(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleNone, role)

	_, err = accounts.SendInvite(ctx, admin, InviteRequest{Email: "grace@example.com", Role: model.RoleAdmin, Name: "Again"})
	assert.ErrorIs(t, err, ErrAlreadyInvited)

	link := mailer.sent[0].Link
	token := link[strings.Index(link, "token=")+len("token="):]

	session, err := accounts.AcceptInvite(ctx, AcceptInviteRequest{
		Token: token, Password: "correct horse", ConfirmPassword: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeamMember, session.Access.Role)
	assert.True(t, session.Access.CanEdit)
	assert.Equal(t, model.ProfileStatusActive, store.profiles[res.ProfileID].Status)

	_, err = accounts.AcceptInvite(ctx, AcceptInviteRequest{
		Token: token, Password: "another pass", ConfirmPassword: "another pass",
	})
	assert.ErrorIs(t, err, ErrInviteInvalid)

	login, err := accounts.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, res.ProfileID, login.Principal.UserID)
}

func TestAcceptInviteValidatesBeforeStorage(t *testing.T) {
	accounts, store, _ := newAccounts(t)

	_, err := accounts.AcceptInvite(context.Background(), AcceptInviteRequest{
		Token: "x", Password: "short", ConfirmPassword: "short",
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "at least 8")

	_, err = accounts.AcceptInvite(context.Background(), AcceptInviteRequest{
		Token: "x", Password: "long enough", ConfirmPassword: "different!",
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "passwords do not match")
	assert.Zero(t, store.calls)
}

func TestAcceptInviteRejectsAccessToken(t *testing.T) {
	accounts, _, _ := newAccounts(t)
	token, _, err := accounts.tokens.Issue(uuid.New(), "", auth.PurposeAccess, time.Hour)
	require.NoError(t, err)

	_, err = accounts.AcceptInvite(context.Background(), AcceptInviteRequest{
		Token: token, Password: "long enough", ConfirmPassword: "long enough",
	})
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestLoginFailures(t *testing.T) {
	accounts, _, _ := newAccounts(t)
	ctx := context.Background()
	_, err := accounts.BootstrapAdmin(ctx, BootstrapRequest{Email: "root@example.com", Password: "rootroot", Name: "Root"})
	require.NoError(t, err)

	_, err = accounts.Login(ctx, LoginRequest{Email: "root@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = accounts.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "rootroot"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := accounts.Login(ctx, LoginRequest{Email: "root@example.com", Password: "rootroot"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, session.Access.Role)
}
