package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nurpe/proposals/internal/access"
	"github.com/nurpe/proposals/internal/auth"
	"github.com/nurpe/proposals/internal/content"
	"github.com/nurpe/proposals/internal/document"
	"github.com/nurpe/proposals/internal/excel"
	"github.com/nurpe/proposals/internal/http/middleware"
	"github.com/nurpe/proposals/internal/metrics"
	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/pdf"
	"github.com/nurpe/proposals/internal/repository"
	"github.com/nurpe/proposals/internal/service"
	"github.com/nurpe/proposals/internal/testutil"
)

type capturingMailer struct {
	last access.Invitation
}

func (m *capturingMailer) SendInvitation(_ context.Context, inv access.Invitation) error {
	m.last = inv
	return nil
}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	tokens   *auth.Parser
	accounts *access.Accounts
	mailer   *capturingMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	db := testutil.NewDB(t)

	proposals := repository.NewProposalRepository(db, 0)
	profiles := repository.NewProfileRepository(db)
	gate := access.NewGate(access.ProfileSource(profiles), access.TeamMemberSource(profiles))
	tokens := auth.NewParser("handler-test-secret")
	mailer := &capturingMailer{}
	accounts := access.NewAccounts(profiles, gate, tokens, mailer, access.AccountsConfig{
		AccessTTL:  time.Hour,
		InviteTTL:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log)

	m := metrics.New()
	clock := testutil.NewFakeClock(time.Now())
	sessions := service.NewSessions(proposals, gate, content.Options{Clock: clock}, m, log)
	exports := service.NewExports(pdf.NewGenerator(), document.NewExporter("/nonexistent/pandoc"), excel.NewGenerator())
	svc := service.NewProposalService(proposals, sessions, exports, nil, m, log)

	handler := NewHandler(svc, accounts, log)
	router := NewRouter(handler, middleware.Auth(tokens, gate), "test", RouterOptions{
		Log:      log,
		Observer: m,
		Metrics:  m.Handler(),
	})
	return &testServer{router: router, db: db, tokens: tokens, accounts: accounts, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.accounts.BootstrapAdmin(context.Background(), access.BootstrapRequest{
		Email: "admin@example.com", Password: "admin-password", Name: "Admin",
	})
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[access.Session](t, rec).Token
}

type mutationBody struct {
	Applied bool `json:"applied"`
	State   struct {
		Content struct {
			Cover struct {
				Title string `json:"title"`
			} `json:"cover"`
		} `json:"content"`
		Status content.Snapshot `json:"status"`
	} `json:"state"`
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", nil).Code)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "proposals_http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/proposal", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/proposal", "garbage", nil).Code)

	invite, _, err := s.tokens.Issue(uuid.New(), "", auth.PurposeInvite, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/proposal", invite, nil).Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	s.adminToken(t)
	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEditSaveAndShare(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	rec := s.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)

	rec = s.do(t, http.MethodPatch, "/proposal/sections/cover", token, map[string]any{"title": "Website Redesign"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[mutationBody](t, rec)
	assert.True(t, body.Applied)
	assert.Equal(t, "Website Redesign", body.State.Content.Cover.Title)

	rec = s.do(t, http.MethodPost, "/proposal/save", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[content.Snapshot](t, rec)
	assert.Equal(t, 1, snap.Version)
	require.NotEmpty(t, snap.ViewToken)

	rec = s.do(t, http.MethodGet, "/view/"+snap.ViewToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Website Redesign")

	rec = s.do(t, http.MethodGet, "/view/"+snap.ViewToken+"/export/pdf", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "website-redesign.pdf")

	rec = s.do(t, http.MethodPost, "/proposal/share/rotate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	link := decode[service.ShareLink](t, rec)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/view/"+snap.ViewToken, "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/view/"+link.Token, "", nil).Code)

	require.NoError(t, s.db.Exec("UPDATE proposals SET share_expires_at = ?", time.Now().Add(-time.Minute)).Error)
	assert.Equal(t, http.StatusGone, s.do(t, http.MethodGet, "/view/"+link.Token, "", nil).Code)
}

func TestEditorErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, "/proposal/sections/footer", token, map[string]any{"x": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, "/proposal/sections/cover", token, []int{1}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/proposal/deliverables/hide", token, map[string]string{"title": "Ghost"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/proposal/deliverables/move", token, map[string]int{"from": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/proposal/export/odt", token, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/proposal/export/docx", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/proposal/share/rotate", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/view/unknown", "", nil).Code)
}

func TestEditModeShapesAndPricing(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	rec := s.do(t, http.MethodPut, "/proposal/edit-mode", token, map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[content.Snapshot](t, rec).EditMode)

	rec = s.do(t, http.MethodPut, "/proposal/shapes/hero", token, map[string]any{"x": 10, "y": 20, "width": 5, "height": 5, "image": true})
	require.Equal(t, http.StatusOK, rec.Code)
	shaped := decode[struct {
		State struct {
			Content struct {
				Shapes model.Shapes `json:"shapes"`
			} `json:"content"`
		} `json:"state"`
	}](t, rec)
	assert.Equal(t, model.ShapeConfig{X: 10, Y: 20, Width: 48, Height: 48}, shaped.State.Content.Shapes["hero"])

	rec = s.do(t, http.MethodPatch, "/proposal/sections/proposal", token, map[string]any{
		"deliverables": []map[string]any{
			{"title": "Research", "rate": 100, "hoursPerPeriod": 10, "duration": 6, "durationUnit": "months"},
		},
		"packages": []map[string]any{
			{"name": "Core", "includedDeliverables": []string{"Research", "Ghost"}, "autoCalculate": true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/proposal/pricing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[service.PricingReport](t, rec)
	require.Len(t, report.Deliverables, 1)
	assert.Equal(t, 261.0, report.Deliverables[0].Hours)
	assert.Equal(t, "$26,100", report.Quotes[0].Price)
	assert.Equal(t, []string{"Ghost"}, report.Quotes[0].Unresolved)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "dangling_reference", string(report.Issues[0].Kind))

	rec = s.do(t, http.MethodPost, "/proposal/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Research")
}

func TestInvitationFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec := s.do(t, http.MethodPost, "/invitations", admin, map[string]string{"email": "bad", "role": "team_member", "name": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/invitations", admin, map[string]string{
		"email": "writer@example.com", "role": "team_member", "name": "Writer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/invitations", admin, map[string]string{
		"email": "writer@example.com", "role": "team_member", "name": "Writer",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	link, err := url.Parse(s.mailer.last.Link)
	require.NoError(t, err)
	inviteToken := link.Query().Get("token")
	require.NotEmpty(t, inviteToken)

	rec = s.do(t, http.MethodPost, "/auth/invitations/accept", "", map[string]string{
		"token": inviteToken, "password": "writer-pass", "confirm_password": "writer-pazz",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "passwords do not match")

	rec = s.do(t, http.MethodPost, "/auth/invitations/accept", "", map[string]string{
		"token": inviteToken, "password": "writer-pass", "confirm_password": "writer-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	writer := decode[access.Session](t, rec)
	assert.Equal(t, "team_member", string(writer.Access.Role))

	rec = s.do(t, http.MethodPatch, "/proposal/sections/cover", writer.Token, map[string]any{"title": "By writer"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[mutationBody](t, rec).Applied)

	rec = s.do(t, http.MethodPost, "/invitations", writer.Token, map[string]string{
		"email": "other@example.com", "role": "admin", "name": "Other",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIdentityWithoutProfileIsReadOnly(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.tokens.Issue(uuid.New(), "visitor@example.com", auth.PurposeAccess, time.Hour)
	require.NoError(t, err)

	rec := s.do(t, http.MethodPatch, "/proposal/sections/cover", token, map[string]any{"title": "Nope"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[mutationBody](t, rec)
	assert.False(t, body.Applied)
	assert.NotEqual(t, "Nope", body.State.Content.Cover.Title)
	assert.True(t, body.State.Status.ReadOnly)

	rec = s.do(t, http.MethodPut, "/proposal/edit-mode", token, map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[content.Snapshot](t, rec).EditMode)
}

func TestUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, w.WriteField("folder", "logos"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
