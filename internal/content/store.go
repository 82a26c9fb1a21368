package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tiendc/go-deepcopy"

	"github.com/nurpe/proposals/internal/model"
)

const (
	DefaultDebounce   = 2 * time.Second
	DefaultSavedReset = 1500 * time.Millisecond
)

var (
	ErrSaveInProgress      = errors.New("save already in progress")
	ErrDeliverableNotFound = errors.New("deliverable not found")
)

// Persister is the storage gateway the store writes through. LoadActive
// returns a nil record and nil error when no active proposal exists.
type Persister interface {
	LoadActive(ctx context.Context) (*model.ProposalRecord, error)
	Create(ctx context.Context, content model.ContentTree, author string) (*model.ProposalRecord, error)
	Update(ctx context.Context, id uuid.UUID, content model.ContentTree, nextVersion int) (*model.ProposalRecord, error)
}

type SaveObserver interface {
	ObserveSave(outcome string, elapsed time.Duration)
}

type Options struct {
	ReadOnly        bool
	DisableAutosave bool
	Debounce        time.Duration
	SavedReset      time.Duration
	Author          string
	Clock           Clock
	Notifier        Notifier
	Observer        SaveObserver
	Log             zerolog.Logger
}

// Store owns the in-memory content tree of one editing session.
type Store struct {
	persister Persister
	opts      Options
	clock     Clock
	notifier  Notifier
	log       zerolog.Logger

	mu          sync.Mutex
	content     model.ContentTree
	recordID    uuid.UUID
	version     int
	viewToken   string
	dirty       bool
	saving      bool
	pending     bool
	closed      bool
	idle        chan struct{}
	status      SaveStatus
	editMode    bool
	lastError   string
	lastNotice  *Notification
	lastSavedAt *time.Time

	// resetPending defers a reset requested during a save until the write
	// completes or fails.
	resetPending bool
	debounceSeq  uint64
	debounce     Timer
	savedTimer   Timer
}

// Open loads the active proposal and returns a store holding it. When no
// proposal exists yet the default content is used and the first save creates
// the record.
func Open(ctx context.Context, persister Persister, opts Options) (*Store, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SavedReset <= 0 {
		opts.SavedReset = DefaultSavedReset
	}
	s := &Store{
		persister: persister,
		opts:      opts,
		clock:     opts.Clock,
		notifier:  opts.Notifier,
		log:       opts.Log,
		status:    StatusIdle,
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}

	record, err := persister.LoadActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active proposal: %w", err)
	}
	s.applyBaseline(record)
	return s, nil
}

func (s *Store) applyBaseline(record *model.ProposalRecord) {
	if record == nil {
		s.content = model.DefaultContent()
		s.recordID = uuid.Nil
		s.version = 0
		s.viewToken = ""
	} else {
		s.content = record.Content
		s.recordID = record.ID
		s.version = record.Version
		s.viewToken = record.ViewToken
	}
	s.dirty = false
	s.pending = false
	s.status = StatusIdle
	s.lastError = ""
}

// Content returns a deep copy of the current tree.
func (s *Store) Content() model.ContentTree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

func (s *Store) cloneLocked() model.ContentTree {
	var out model.ContentTree
	if err := deepcopy.Copy(&out, &s.content); err != nil {
		s.log.Error().Err(err).Msg("copy content tree")
		return s.content
	}
	return out
}

func (s *Store) ReadOnly() bool {
	return s.opts.ReadOnly
}

// UpdateContent shallow-merges patch into one section. On a read-only store
// it changes nothing and reports applied=false without an error.
func (s *Store) UpdateContent(section model.Section, patch model.Patch) (bool, error) {
	if s.opts.ReadOnly {
		s.notify(LevelWarning, "this proposal is view-only; changes were not applied")
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.content
	target, err := next.SectionPtr(section)
	if err != nil {
		return false, err
	}
	if err := model.ApplyPatch(target, patch); err != nil {
		return false, fmt.Errorf("update %s: %w", section, err)
	}
	if section == model.SectionProposal {
		if err := next.Proposal.Validate(); err != nil {
			return false, fmt.Errorf("update %s: %w", section, err)
		}
	}

	s.content = next
	s.dirty = true
	if s.status == StatusError {
		s.status = StatusIdle
		s.lastError = ""
	}
	s.scheduleLocked()
	return true, nil
}

// SetShape stores a position override for id with width and height clamped
// to minSize.
func (s *Store) SetShape(id string, cfg model.ShapeConfig, minSize float64) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("shape id is required")
	}
	patch, err := model.NewPatch(map[string]any{id: cfg.Clamp(minSize)})
	if err != nil {
		return false, err
	}
	return s.UpdateContent(model.SectionShapes, patch)
}

func (s *Store) HideDeliverable(title string) (bool, error) {
	return s.editDeliverables(func(p model.ProposalSection) (model.ProposalSection, bool) {
		return p.HideDeliverable(title)
	})
}

func (s *Store) RestoreDeliverable(title string) (bool, error) {
	return s.editDeliverables(func(p model.ProposalSection) (model.ProposalSection, bool) {
		return p.RestoreDeliverable(title)
	})
}

func (s *Store) MoveDeliverable(from, to int) (bool, error) {
	return s.editDeliverables(func(p model.ProposalSection) (model.ProposalSection, bool) {
		return p.MoveDeliverable(from, to)
	})
}

func (s *Store) editDeliverables(fn func(model.ProposalSection) (model.ProposalSection, bool)) (bool, error) {
	if s.opts.ReadOnly {
		return s.UpdateContent(model.SectionProposal, nil)
	}
	current := s.Content().Proposal
	next, ok := fn(current)
	if !ok {
		return false, ErrDeliverableNotFound
	}
	patch, err := model.NewPatch(map[string]any{
		"deliverables":       next.Deliverables,
		"hiddenDeliverables": next.HiddenDeliverables,
	})
	if err != nil {
		return false, err
	}
	return s.UpdateContent(model.SectionProposal, patch)
}

// SetEditMode toggles editing affordances. A read-only store never enters
// edit mode.
func (s *Store) SetEditMode(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = enabled && !s.opts.ReadOnly
	return s.editMode
}

func (s *Store) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Status:      s.status,
		Dirty:       s.dirty,
		Saving:      s.saving,
		Version:     s.version,
		ViewToken:   s.viewToken,
		ReadOnly:    s.opts.ReadOnly,
		EditMode:    s.editMode,
		LastError:   s.lastError,
		LastNotice:  s.lastNotice,
		LastSavedAt: s.lastSavedAt,
	}
	if s.recordID != uuid.Nil {
		id := s.recordID
		snap.ProposalID = &id
	}
	return snap
}

// Save flushes pending edits immediately, bypassing the debounce window.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	s.stopDebounceLocked()
	s.mu.Unlock()
	return s.flush(ctx)
}

// Reset drops local edits and reloads the active proposal. While a save is
// in flight the reset is deferred until that write completes or fails, so
// the local version always follows the stored one.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.resetPending = true
		s.stopDebounceLocked()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	record, err := s.persister.LoadActive(ctx)
	if err != nil {
		s.notify(LevelError, "could not reload proposal: "+err.Error())
		return fmt.Errorf("reload proposal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		s.resetPending = true
		s.stopDebounceLocked()
		return nil
	}
	s.stopDebounceLocked()
	s.stopSavedTimerLocked()
	s.applyBaseline(record)
	return nil
}

// Refresh picks up writes made by other sessions. It only replaces the
// baseline when the store holds no unsaved edits and no save is in flight,
// and reports whether anything changed.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	busy := s.dirty || s.saving || s.resetPending || s.closed
	s.mu.Unlock()
	if busy {
		return false, nil
	}

	record, err := s.persister.LoadActive(ctx)
	if err != nil {
		return false, fmt.Errorf("reload proposal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty || s.saving || s.resetPending || s.closed || record == nil {
		return false, nil
	}
	if record.ID == s.recordID && record.Version == s.version && record.ViewToken == s.viewToken {
		return false, nil
	}
	s.content = record.Content
	s.recordID = record.ID
	s.version = record.Version
	s.viewToken = record.ViewToken
	return true, nil
}

// Close stops timers and writes any unsaved edits. When a save is in flight
// that save writes the remaining edits before it finishes; Wait blocks until
// it has.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.stopDebounceLocked()
	s.stopSavedTimerLocked()
	if s.saving {
		s.mu.Unlock()
		return nil
	}
	dirty := s.dirty && !s.opts.ReadOnly
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	err := s.flush(ctx)
	if errors.Is(err, ErrSaveInProgress) {
		err = nil
	}

	s.mu.Lock()
	s.stopSavedTimerLocked()
	s.mu.Unlock()
	return err
}

// Wait blocks until no save is in flight.
func (s *Store) Wait(ctx context.Context) error {
	s.mu.Lock()
	if !s.saving {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) scheduleLocked() {
	if s.opts.ReadOnly || s.opts.DisableAutosave || s.closed {
		return
	}
	s.stopDebounceLocked()
	s.debounceSeq++
	seq := s.debounceSeq
	s.debounce = s.clock.AfterFunc(s.opts.Debounce, func() {
		s.onDebounce(seq)
	})
}

func (s *Store) onDebounce(seq uint64) {
	s.mu.Lock()
	if seq != s.debounceSeq {
		s.mu.Unlock()
		return
	}
	s.debounce = nil
	s.mu.Unlock()

	if err := s.flush(context.Background()); err != nil && !errors.Is(err, ErrSaveInProgress) {
		s.log.Warn().Err(err).Msg("autosave failed")
	}
}

func (s *Store) stopDebounceLocked() {
	s.debounceSeq++
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Store) stopSavedTimerLocked() {
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
}

func (s *Store) flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.ReadOnly {
		return nil
	}
	if s.saving {
		s.pending = true
		return ErrSaveInProgress
	}
	if !s.dirty && s.recordID != uuid.Nil {
		return nil
	}

	s.saving = true
	s.idle = make(chan struct{})
	defer func() {
		s.saving = false
		close(s.idle)
	}()

	err := s.writeLocked(ctx)
	for {
		switch {
		case s.resetPending:
			s.reloadLocked(ctx)
		case s.closed && s.dirty && err == nil:
			err = s.writeLocked(ctx)
		default:
			s.pending = false
			if s.closed {
				s.stopSavedTimerLocked()
			} else if s.dirty && err == nil {
				s.scheduleLocked()
			}
			return err
		}
	}
}

// writeLocked persists a snapshot of the current tree. s.mu is released for
// the duration of the write.
func (s *Store) writeLocked(ctx context.Context) error {
	snapshot := s.cloneLocked()
	id := s.recordID
	known := s.version
	s.dirty = false
	s.status = StatusSaving
	s.stopSavedTimerLocked()
	s.version = known + 1
	s.mu.Unlock()

	started := s.clock.Now()
	record, err := s.write(ctx, id, snapshot, known+1)
	elapsed := s.clock.Now().Sub(started)

	s.mu.Lock()
	if err != nil {
		s.version = known
		s.dirty = true
		s.status = StatusError
		s.lastError = err.Error()
		s.observe("error", elapsed)
		s.notifyLocked(LevelError, "could not save proposal: "+err.Error())
		return fmt.Errorf("save proposal: %w", err)
	}

	s.recordID = record.ID
	s.version = record.Version
	s.viewToken = record.ViewToken
	savedAt := record.UpdatedAt
	s.lastSavedAt = &savedAt
	s.status = StatusSaved
	s.lastError = ""
	s.observe("success", elapsed)
	s.savedTimer = s.clock.AfterFunc(s.opts.SavedReset, s.markIdle)
	return nil
}

// reloadLocked applies a deferred reset once the write it waited for has
// settled. s.mu is released while loading.
func (s *Store) reloadLocked(ctx context.Context) {
	s.resetPending = false
	s.mu.Unlock()
	record, err := s.persister.LoadActive(ctx)
	s.mu.Lock()
	if err != nil {
		s.notifyLocked(LevelError, "could not reload proposal: "+err.Error())
		return
	}
	s.stopDebounceLocked()
	s.stopSavedTimerLocked()
	s.applyBaseline(record)
}

// write creates the record when the session has none yet, unless another
// session created one since this store was opened.
func (s *Store) write(ctx context.Context, id uuid.UUID, snapshot model.ContentTree, next int) (*model.ProposalRecord, error) {
	if id != uuid.Nil {
		return s.persister.Update(ctx, id, snapshot, next)
	}
	existing, err := s.persister.LoadActive(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.persister.Update(ctx, existing.ID, snapshot, existing.Version+1)
	}
	return s.persister.Create(ctx, snapshot, s.opts.Author)
}

func (s *Store) markIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSaved {
		s.status = StatusIdle
	}
	s.savedTimer = nil
}

func (s *Store) observe(outcome string, elapsed time.Duration) {
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveSave(outcome, elapsed)
	}
}

func (s *Store) notify(level Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(level, msg)
}

func (s *Store) notifyLocked(level Level, msg string) {
	note := Notification{Level: level, Message: msg, At: s.clock.Now()}
	s.lastNotice = &note
	s.notifier.Notify(note)
}
