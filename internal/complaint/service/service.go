// Package service implements the complaint lifecycle: filing, scoped reads,
// edit locking, and the append-only update path. One Service per actor scope;
// the scope carries the authorization differences so the lifecycle logic is
// written once.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"grievance/internal/audit"
	"grievance/internal/cache"
	"grievance/internal/citizen"
	"grievance/internal/complaint/lock"
	complaintmetrics "grievance/internal/complaint/metrics"
	"grievance/internal/complaint/models"
	complaintstore "grievance/internal/complaint/store/complaint"
	"grievance/internal/notify"
	id "grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/sentinel"
	"grievance/pkg/requestcontext"
)

// ComplaintStore is the header persistence the service needs.
type ComplaintStore interface {
	Create(ctx context.Context, c *models.Complaint) error
	FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	List(ctx context.Context, filter complaintstore.Filter) ([]*models.Complaint, error)
	ReleaseLock(ctx context.Context, complaintID id.ComplaintID, actor id.Actor) (bool, error)
}

// HistoryStore is the ledger persistence the service needs. Append-only.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	LatestFor(ctx context.Context, complaintID id.ComplaintID) (*models.HistoryEntry, error)
	AllFor(ctx context.Context, complaintID id.ComplaintID) ([]models.HistoryEntry, error)
	LatestForMany(ctx context.Context, complaintIDs []id.ComplaintID) (map[id.ComplaintID]models.HistoryEntry, error)
}

// AuditEmitter decouples the service from the concrete publisher.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates the complaint lifecycle for one actor scope.
type Service struct {
	scope      ActorScope
	complaints ComplaintStore
	history    HistoryStore
	locks      *lock.Manager
	tx         StoreTx

	citizens citizen.Store
	notifier notify.Dispatcher
	cache    cache.Invalidator
	auditor  AuditEmitter
	metrics  *complaintmetrics.Metrics
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *complaintmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditEmitter(emitter AuditEmitter) Option {
	return func(s *Service) { s.auditor = emitter }
}

func WithCitizens(store citizen.Store) Option {
	return func(s *Service) { s.citizens = store }
}

func WithNotifier(dispatcher notify.Dispatcher) Option {
	return func(s *Service) { s.notifier = dispatcher }
}

func WithCache(invalidator cache.Invalidator) Option {
	return func(s *Service) { s.cache = invalidator }
}

func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// New constructs a Service for one actor scope.
func New(scope ActorScope, complaints ComplaintStore, history HistoryStore, locks *lock.Manager, opts ...Option) *Service {
	s := &Service{
		scope:      scope,
		complaints: complaints,
		history:    history,
		locks:      locks,
		cache:      cache.NoopInvalidator{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = newInMemoryStoreTx()
	}
	return s
}

// CreateParams carries the submission payload for a new complaint.
type CreateParams struct {
	Category    string
	Authority   string
	Title       string
	Description string
	Location    string
	Attachments []string
}

// Summary pairs a complaint header with its ledger-derived current entry for
// listings.
type Summary struct {
	Complaint *models.Complaint
	Status    models.Status
	Title     string
	UpdatedAt time.Time
}

// Detail is the full view of one complaint: header plus entire ledger, oldest
// first, with the derived current entry.
type Detail struct {
	Complaint *models.Complaint
	Current   models.HistoryEntry
	History   []models.HistoryEntry
}

// Create files a new complaint: the header and its NEW history entry commit
// in one transaction, so a complaint never exists with an empty ledger.
func (s *Service) Create(ctx context.Context, actor id.Actor, params CreateParams) (*Detail, error) {
	if !s.scope.MayCreate {
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens may file complaints")
	}

	params.Title = strings.TrimSpace(params.Title)
	params.Authority = strings.TrimSpace(params.Authority)
	now := requestcontext.Now(ctx)

	c, err := models.NewComplaint(id.ComplaintID(uuid.New()), id.CitizenID(actor.ID), params.Category, params.Authority, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeBadRequest, err.Error())
		}
		return nil, err
	}
	entry, err := models.NewInitialEntry(id.EntryID(uuid.New()), c, params.Title, params.Description, params.Location, params.Attachments, actor, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.complaints.Create(txCtx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create complaint")
		}
		if err := s.history.Append(txCtx, &entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append initial history entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCreated(c.Authority)
	s.emitAudit(ctx, audit.Event{
		Action:      audit.ActionComplaintCreated,
		ComplaintID: c.ID,
		ToStatus:    string(entry.Status),
	}, actor)
	if s.cache != nil {
		s.cache.InvalidateLists(ctx)
	}

	return &Detail{Complaint: c, Current: entry, History: []models.HistoryEntry{entry}}, nil
}

// List returns a page of complaints visible to the actor, each annotated with
// its current status derived from the ledger.
func (s *Service) List(ctx context.Context, actor id.Actor, limit, offset int) ([]Summary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	complaints, err := s.complaints.List(ctx, s.scope.ListFilter(actor, limit, offset))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list complaints")
	}
	if len(complaints) == 0 {
		return []Summary{}, nil
	}

	ids := make([]id.ComplaintID, 0, len(complaints))
	for _, c := range complaints {
		ids = append(ids, c.ID)
	}
	currents, err := s.history.LatestForMany(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive complaint statuses")
	}

	summaries := make([]Summary, 0, len(complaints))
	for _, c := range complaints {
		current, ok := currents[c.ID]
		if !ok {
			// Empty ledger violates the creation invariant; skip rather than
			// surface a broken row.
			s.logger.WarnContext(ctx, "complaint has no history entries", "complaint_id", c.ID.String())
			continue
		}
		summaries = append(summaries, Summary{
			Complaint: c,
			Status:    current.Status,
			Title:     current.Title,
			UpdatedAt: current.CreatedAt,
		})
	}
	return summaries, nil
}

// Get loads one complaint with its full ledger. An out-of-scope complaint is
// indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) (*Detail, error) {
	c, err := s.findInScope(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}

	entries, err := s.history.AllFor(ctx, complaintID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load complaint history")
	}
	current, ok := models.CurrentOf(entries)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "complaint has no history entries")
	}
	return &Detail{Complaint: c, Current: current, History: entries}, nil
}

// Lock acquires the edit lock for the actor, after the same scope check as
// Get.
func (s *Service) Lock(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) error {
	if _, err := s.findInScope(ctx, actor, complaintID); err != nil {
		return err
	}

	if err := s.locks.Acquire(ctx, complaintID, actor, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeLockConflict) {
			s.metrics.IncrementLock(string(actor.Kind), "conflict")
		}
		return err
	}

	s.metrics.IncrementLock(string(actor.Kind), "acquired")
	s.emitAudit(ctx, audit.Event{
		Action:      audit.ActionLockAcquired,
		ComplaintID: complaintID,
	}, actor)
	return nil
}

// Unlock releases the edit lock if the actor holds it; a non-holder unlock is
// a no-op, not an error.
func (s *Service) Unlock(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) error {
	if _, err := s.findInScope(ctx, actor, complaintID); err != nil {
		return err
	}

	if err := s.locks.Release(ctx, complaintID, actor); err != nil {
		return err
	}
	s.metrics.IncrementLock(string(actor.Kind), "released")
	s.emitAudit(ctx, audit.Event{
		Action:      audit.ActionLockReleased,
		ComplaintID: complaintID,
	}, actor)
	return nil
}

// ReleaseAllLocks frees every lock the actor holds. Invoked on logout.
func (s *Service) ReleaseAllLocks(ctx context.Context, actor id.Actor) (int, error) {
	count, err := s.locks.ReleaseAllFor(ctx, actor)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.metrics.IncrementLock(string(actor.Kind), "released")
	}
	return count, nil
}

// Update appends the next history entry: latest snapshot carried forward with
// the edit overlaid. Every precondition (scope, lock ownership, transition
// legality) is re-checked on a fresh read inside the transaction, so a lock
// stolen between the caller's Lock and this write still fails cleanly. The
// lock is released in the same transaction as the append.
func (s *Service) Update(ctx context.Context, actor id.Actor, complaintID id.ComplaintID, edit models.EntryEdit) (*models.HistoryEntry, error) {
	if edit.Empty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "update changes nothing")
	}
	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "complaint title cannot be empty")
	}

	now := requestcontext.Now(ctx)
	var (
		appended   models.HistoryEntry
		fromStatus models.Status
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.findInScope(txCtx, actor, complaintID)
		if err != nil {
			return err
		}
		if err := s.locks.EnsureOwner(c, actor); err != nil {
			return err
		}

		latest, err := s.history.LatestFor(txCtx, complaintID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeInternal, "complaint has no history entries")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest history entry")
		}
		fromStatus = latest.Status

		if err := s.validateEdit(latest.Status, edit); err != nil {
			return err
		}

		entry := models.NextEntry(id.EntryID(uuid.New()), *latest, edit, actor, now)
		if err := s.history.Append(txCtx, &entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history entry")
		}
		if _, err := s.complaints.ReleaseLock(txCtx, complaintID, actor); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release lock")
		}
		appended = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	statusChanged := appended.Status != fromStatus
	if statusChanged {
		s.metrics.IncrementTransition(string(fromStatus), string(appended.Status))
		s.emitAudit(ctx, audit.Event{
			Action:      audit.ActionStatusChanged,
			ComplaintID: complaintID,
			FromStatus:  string(fromStatus),
			ToStatus:    string(appended.Status),
		}, actor)
		s.notifyStatusChange(ctx, complaintID, fromStatus, appended.Status)
		if s.cache != nil {
			// Covers the list views too; the invalidator drops both.
			s.cache.InvalidateComplaint(ctx, complaintID)
		}
	} else {
		s.emitAudit(ctx, audit.Event{
			Action:      audit.ActionComplaintUpdated,
			ComplaintID: complaintID,
		}, actor)
	}

	return &appended, nil
}

// validateEdit enforces the terminal-state rule and the transition machine.
// Closed complaints refuse everything from citizens and staff; admins may
// amend content but never move the status off a terminal state.
func (s *Service) validateEdit(current models.Status, edit models.EntryEdit) error {
	if current.IsTerminal() {
		if !s.scope.MayEditTerminal {
			s.metrics.IncrementRejection("terminal")
			return dErrors.New(dErrors.CodeInvalidState, "complaint is closed with status "+string(current))
		}
		if edit.Status != nil && *edit.Status != current {
			s.metrics.IncrementRejection("terminal")
			return dErrors.New(dErrors.CodeInvalidState, "closed complaint status cannot change")
		}
		return nil
	}
	if edit.Status == nil {
		return nil
	}
	if err := models.ValidateTransition(current, *edit.Status); err != nil {
		if dErrors.HasCode(err, dErrors.CodeIllegalTransition) {
			s.metrics.IncrementRejection("illegal_edge")
		}
		return err
	}
	return nil
}

// findInScope loads the header and applies the visibility check, collapsing
// out-of-scope into not-found.
func (s *Service) findInScope(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) (*models.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load complaint")
	}
	if !s.scope.InScope(actor, c) {
		return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
	}
	return c, nil
}

// notifyStatusChange pushes the new status to the complaint's owner. Entirely
// best-effort: the ledger append already committed, so every failure here is
// logged and swallowed. A gateway report of an unregistered token clears the
// stored token so we stop pushing at it.
func (s *Service) notifyStatusChange(ctx context.Context, complaintID id.ComplaintID, from, to models.Status) {
	if s.notifier == nil || s.citizens == nil {
		return
	}

	c, err := s.complaints.FindByID(ctx, complaintID)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping notification, complaint reload failed",
			"complaint_id", complaintID.String(), "error", err)
		return
	}
	owner, err := s.citizens.FindOne(ctx, c.CitizenID)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping notification, citizen lookup failed",
			"citizen_id", c.CitizenID.String(), "error", err)
		return
	}
	if owner.PushToken == nil || *owner.PushToken == "" {
		return
	}

	err = s.notifier.SendToToken(ctx, *owner.PushToken,
		"Complaint status updated",
		"Your complaint moved from "+string(from)+" to "+string(to),
		map[string]string{
			"complaint_id": complaintID.String(),
			"status":       string(to),
		})
	if err != nil {
		if errors.Is(err, notify.ErrUnregisteredToken) {
			if clearErr := s.citizens.SetPushToken(ctx, c.CitizenID, nil); clearErr != nil {
				s.logger.WarnContext(ctx, "failed to clear unregistered push token",
					"citizen_id", c.CitizenID.String(), "error", clearErr)
			}
			return
		}
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"complaint_id", complaintID.String(), "error", err)
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event, actor id.Actor) {
	if s.auditor == nil {
		return
	}
	event.ActorKind = string(actor.Kind)
	event.ActorID = actor.ID.String()
	event.RequestID = requestcontext.RequestID(ctx)
	s.auditor.Emit(ctx, event)
}
