package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/proposals/internal/content"
	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/pricing"
	"github.com/nurpe/proposals/internal/repository"
	"github.com/nurpe/proposals/internal/storage"
)

type ProposalRepository interface {
	content.Persister
	FindByToken(ctx context.Context, token string) (*model.ProposalRecord, error)
	RotateShareToken(ctx context.Context, id uuid.UUID) (*model.ProposalRecord, error)
}

type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64) (*storage.Upload, error)
}

type Observer interface {
	ObserveExport(format string, err error)
	ObserveUpload(err error)
}

type ProposalService struct {
	repo     ProposalRepository
	sessions *Sessions
	exports  *Exports
	uploader Uploader
	observer Observer
	log      zerolog.Logger
}

// NewProposalService wires the editor operations. uploader and observer may be nil.
func NewProposalService(repo ProposalRepository, sessions *Sessions, exports *Exports, uploader Uploader, observer Observer, log zerolog.Logger) *ProposalService {
	return &ProposalService{
		repo:     repo,
		sessions: sessions,
		exports:  exports,
		uploader: uploader,
		observer: observer,
		log:      log,
	}
}

type EditorState struct {
	Content model.ContentTree `json:"content"`
	Status  content.Snapshot  `json:"status"`
	Access  model.Access      `json:"access"`
	Quotes  []pricing.Quote   `json:"quotes"`
	Issues  []pricing.Issue   `json:"issues,omitempty"`
}

type MutationResult struct {
	Applied bool         `json:"applied"`
	State   *EditorState `json:"state"`
}

func (s *ProposalService) Access(ctx context.Context, principal model.Principal) (model.Access, error) {
	_, access, err := s.sessions.Open(ctx, principal)
	return access, err
}

func (s *ProposalService) Editor(ctx context.Context, principal model.Principal) (*EditorState, error) {
	store, access, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	return editorState(store, access), nil
}

func editorState(store *content.Store, access model.Access) *EditorState {
	tree := store.Content()
	return &EditorState{
		Content: tree,
		Status:  store.Status(),
		Access:  access,
		Quotes:  pricing.QuoteAll(tree.Proposal),
		Issues:  pricing.ValidateReferences(tree.Proposal),
	}
}

func (s *ProposalService) UpdateSection(ctx context.Context, principal model.Principal, rawSection string, patch model.Patch) (*MutationResult, error) {
	section, err := model.ParseSection(rawSection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.mutate(ctx, principal, func(store *content.Store) (bool, error) {
		return store.UpdateContent(section, patch)
	})
}

func (s *ProposalService) HideDeliverable(ctx context.Context, principal model.Principal, title string) (*MutationResult, error) {
	return s.mutate(ctx, principal, func(store *content.Store) (bool, error) {
		return store.HideDeliverable(title)
	})
}

func (s *ProposalService) RestoreDeliverable(ctx context.Context, principal model.Principal, title string) (*MutationResult, error) {
	return s.mutate(ctx, principal, func(store *content.Store) (bool, error) {
		return store.RestoreDeliverable(title)
	})
}

func (s *ProposalService) MoveDeliverable(ctx context.Context, principal model.Principal, from, to int) (*MutationResult, error) {
	return s.mutate(ctx, principal, func(store *content.Store) (bool, error) {
		return store.MoveDeliverable(from, to)
	})
}

// SetShape stores a position override. Image elements get the larger minimum size.
func (s *ProposalService) SetShape(ctx context.Context, principal model.Principal, id string, cfg model.ShapeConfig, image bool) (*MutationResult, error) {
	minSize := float64(model.MinShapeSize)
	if image {
		minSize = model.MinImageShapeSize
	}
	return s.mutate(ctx, principal, func(store *content.Store) (bool, error) {
		return store.SetShape(strings.TrimSpace(id), cfg, minSize)
	})
}

func (s *ProposalService) mutate(ctx context.Context, principal model.Principal, fn func(*content.Store) (bool, error)) (*MutationResult, error) {
	store, access, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	applied, err := fn(store)
	if err != nil {
		if errors.Is(err, content.ErrDeliverableNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &MutationResult{Applied: applied, State: editorState(store, access)}, nil
}

func (s *ProposalService) SetEditMode(ctx context.Context, principal model.Principal, enabled bool) (content.Snapshot, error) {
	store, _, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return content.Snapshot{}, err
	}
	store.SetEditMode(enabled)
	return store.Status(), nil
}

// Save writes pending edits immediately. A read-only session saves nothing.
func (s *ProposalService) Save(ctx context.Context, principal model.Principal) (content.Snapshot, error) {
	store, _, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return content.Snapshot{}, err
	}
	if err := store.Save(ctx); err != nil {
		if errors.Is(err, content.ErrSaveInProgress) {
			return store.Status(), ErrConflict
		}
		return store.Status(), err
	}
	return store.Status(), nil
}

func (s *ProposalService) Reset(ctx context.Context, principal model.Principal) (*EditorState, error) {
	store, access, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	if err := store.Reset(ctx); err != nil {
		return nil, err
	}
	return editorState(store, access), nil
}

type DeliverableLine struct {
	Title string  `json:"title"`
	Hours float64 `json:"hours"`
	Cost  float64 `json:"cost"`
	Price string  `json:"price"`
}

type PricingReport struct {
	Deliverables []DeliverableLine `json:"deliverables"`
	Total        float64           `json:"total"`
	Quotes       []pricing.Quote   `json:"quotes"`
	Issues       []pricing.Issue   `json:"issues"`
}

func (s *ProposalService) Pricing(ctx context.Context, principal model.Principal) (*PricingReport, error) {
	store, _, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	return BuildPricingReport(store.Content().Proposal), nil
}

func BuildPricingReport(section model.ProposalSection) *PricingReport {
	report := &PricingReport{
		Deliverables: make([]DeliverableLine, 0, len(section.Deliverables)),
		Quotes:       pricing.QuoteAll(section),
		Issues:       pricing.ValidateReferences(section),
	}
	for _, d := range section.Deliverables {
		cost := pricing.DeliverableCost(d)
		report.Total += cost
		report.Deliverables = append(report.Deliverables, DeliverableLine{
			Title: d.Title,
			Hours: pricing.DeliverableHours(d),
			Cost:  cost,
			Price: pricing.FormatPrice(cost),
		})
	}
	return report
}

func (s *ProposalService) Export(ctx context.Context, principal model.Principal, rawFormat string) (*ExportResult, error) {
	store, _, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.export(ctx, store.Content(), rawFormat)
}

func (s *ProposalService) export(ctx context.Context, tree model.ContentTree, rawFormat string) (*ExportResult, error) {
	format, err := ParseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	result, err := s.exports.Render(ctx, tree, format)
	if s.observer != nil {
		s.observer.ObserveExport(string(format), err)
	}
	return result, err
}

type SharedProposal struct {
	Content   model.ContentTree `json:"content"`
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Quotes    []pricing.Quote   `json:"quotes"`
}

// Shared returns the proposal behind a public view token. It never opens an
// editing session.
func (s *ProposalService) Shared(ctx context.Context, token string) (*SharedProposal, error) {
	record, err := s.findShared(ctx, token)
	if err != nil {
		return nil, err
	}
	return &SharedProposal{
		Content:   record.Content,
		Version:   record.Version,
		UpdatedAt: record.UpdatedAt,
		Quotes:    pricing.QuoteAll(record.Content.Proposal),
	}, nil
}

func (s *ProposalService) SharedExport(ctx context.Context, token, rawFormat string) (*ExportResult, error) {
	record, err := s.findShared(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.export(ctx, record.Content, rawFormat)
}

func (s *ProposalService) findShared(ctx context.Context, token string) (*model.ProposalRecord, error) {
	record, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrExpired):
			return nil, ErrExpired
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

type ShareLink struct {
	Token     string     `json:"view_token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RotateShareLink replaces the public token of the active proposal, which
// revokes the previous link.
func (s *ProposalService) RotateShareLink(ctx context.Context, principal model.Principal) (*ShareLink, error) {
	store, access, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit {
		return nil, ErrPermissionDenied
	}
	snap := store.Status()
	if snap.ProposalID == nil {
		return nil, fmt.Errorf("%w: proposal has not been saved yet", ErrNotFound)
	}
	record, err := s.repo.RotateShareToken(ctx, *snap.ProposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.log.Info().Str("proposal_id", record.ID.String()).Str("user_id", principal.UserID.String()).Msg("share link rotated")
	return &ShareLink{Token: record.ViewToken, ExpiresAt: record.ShareExpiresAt}, nil
}

type UploadInput struct {
	Folder      string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *ProposalService) Upload(ctx context.Context, principal model.Principal, input UploadInput) (*storage.Upload, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrUnavailable)
	}
	_, access, err := s.sessions.Open(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit {
		return nil, ErrPermissionDenied
	}
	upload, err := s.uploader.Upload(ctx, input.Folder, input.FileName, input.ContentType, input.Body, input.Size)
	if s.observer != nil {
		s.observer.ObserveUpload(err)
	}
	if err != nil {
		if errors.Is(err, storage.ErrInvalidUpload) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	return upload, nil
}

// Shutdown flushes every open editing session.
func (s *ProposalService) Shutdown(ctx context.Context) error {
	return s.sessions.CloseAll(ctx)
}
