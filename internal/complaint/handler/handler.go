// Package handler wires the complaint lifecycle service to HTTP. Handlers
// stay thin: decode, resolve the actor, call the service, translate coded
// errors. The same handler shape is mounted once per actor scope.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/service"
	id "grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/httputil"
	"grievance/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler exposes.
type Service interface {
	Create(ctx context.Context, actor id.Actor, params service.CreateParams) (*service.Detail, error)
	List(ctx context.Context, actor id.Actor, limit, offset int) ([]service.Summary, error)
	Get(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) (*service.Detail, error)
	Lock(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) error
	Unlock(ctx context.Context, actor id.Actor, complaintID id.ComplaintID) error
	Update(ctx context.Context, actor id.Actor, complaintID id.ComplaintID, edit models.EntryEdit) (*models.HistoryEntry, error)
	ReleaseAllLocks(ctx context.Context, actor id.Actor) (int, error)
}

// Handler wires complaint endpoints to one scoped lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a complaint handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the complaint endpoints on the router. The caller mounts
// this under the scope's prefix (/complaints, /staff/complaints, ...).
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/{complaintID}", h.HandleGet)
	r.Post("/{complaintID}/lock", h.HandleLock)
	r.Post("/{complaintID}/unlock", h.HandleUnlock)
	r.Patch("/{complaintID}", h.HandleUpdate)
}

// RegisterLockRelease mounts the bulk lock release endpoint, called by the
// auth layer on logout.
func (h *Handler) RegisterLockRelease(r chi.Router) {
	r.Post("/locks/release-all", h.HandleReleaseAll)
}

// HandleCreate handles POST /complaints requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateComplaintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	detail, err := h.service.Create(ctx, actor, service.CreateParams{
		Category:    req.Category,
		Authority:   req.Authority,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Attachments: req.Attachments,
	})
	if err != nil {
		h.logFailure(ctx, "complaint creation failed", requestID, actor, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "complaint created",
		"request_id", requestID,
		"complaint_id", detail.Complaint.ID.String(),
		"authority", detail.Complaint.Authority,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDetail(detail))
}

// HandleList handles GET /complaints requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")
	summaries, err := h.service.List(ctx, actor, limit, offset)
	if err != nil {
		h.logFailure(ctx, "complaint listing failed", requestcontext.RequestID(ctx), actor, err)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Complaints: make([]ComplaintResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Complaints = append(resp.Complaints, FromSummary(s))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /complaints/{complaintID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	complaintID, ok := h.pathComplaintID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(ctx, actor, complaintID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDetail(detail))
}

// HandleLock handles POST /complaints/{complaintID}/lock requests.
func (h *Handler) HandleLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	complaintID, ok := h.pathComplaintID(w, r)
	if !ok {
		return
	}

	if err := h.service.Lock(ctx, actor, complaintID); err != nil {
		h.logFailure(ctx, "lock acquisition failed", requestcontext.RequestID(ctx), actor, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlock handles POST /complaints/{complaintID}/unlock requests.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	complaintID, ok := h.pathComplaintID(w, r)
	if !ok {
		return
	}

	if err := h.service.Unlock(ctx, actor, complaintID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdate handles PATCH /complaints/{complaintID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	complaintID, ok := h.pathComplaintID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateComplaintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.Update(ctx, actor, complaintID, req.Edit())
	if err != nil {
		h.logFailure(ctx, "complaint update failed", requestID, actor, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "complaint updated",
		"request_id", requestID,
		"complaint_id", complaintID.String(),
		"status", string(entry.Status),
	)
	httputil.WriteJSON(w, http.StatusOK, fromEntry(*entry))
}

// HandleReleaseAll handles POST /locks/release-all requests.
func (h *Handler) HandleReleaseAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}

	released, err := h.service.ReleaseAllLocks(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReleaseAllResponse{Released: released})
}

func (h *Handler) requireActor(w http.ResponseWriter, ctx context.Context) (id.Actor, bool) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Actor{}, false
	}
	return actor, true
}

func (h *Handler) pathComplaintID(w http.ResponseWriter, r *http.Request) (id.ComplaintID, bool) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "complaintID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ComplaintID{}, false
	}
	return complaintID, true
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, actor id.Actor, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestID,
		"actor_kind", string(actor.Kind),
		"error", err,
	)
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
