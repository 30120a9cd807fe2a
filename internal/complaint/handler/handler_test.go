package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/service"
	id "grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/requestcontext"
)

// stubService scripts one response per operation.
type stubService struct {
	detail  *service.Detail
	entry   *models.HistoryEntry
	list    []service.Summary
	err     error
	lastIDs []id.ComplaintID
}

func (s *stubService) Create(_ context.Context, _ id.Actor, _ service.CreateParams) (*service.Detail, error) {
	return s.detail, s.err
}

func (s *stubService) List(_ context.Context, _ id.Actor, _, _ int) ([]service.Summary, error) {
	return s.list, s.err
}

func (s *stubService) Get(_ context.Context, _ id.Actor, complaintID id.ComplaintID) (*service.Detail, error) {
	s.lastIDs = append(s.lastIDs, complaintID)
	return s.detail, s.err
}

func (s *stubService) Lock(_ context.Context, _ id.Actor, complaintID id.ComplaintID) error {
	s.lastIDs = append(s.lastIDs, complaintID)
	return s.err
}

func (s *stubService) Unlock(_ context.Context, _ id.Actor, complaintID id.ComplaintID) error {
	s.lastIDs = append(s.lastIDs, complaintID)
	return s.err
}

func (s *stubService) Update(_ context.Context, _ id.Actor, complaintID id.ComplaintID, _ models.EntryEdit) (*models.HistoryEntry, error) {
	s.lastIDs = append(s.lastIDs, complaintID)
	return s.entry, s.err
}

func (s *stubService) ReleaseAllLocks(_ context.Context, _ id.Actor) (int, error) {
	return 2, s.err
}

func testDetail() *service.Detail {
	now := time.Now()
	entry := models.HistoryEntry{
		ID:          id.EntryID(uuid.New()),
		ComplaintID: id.ComplaintID(uuid.New()),
		Author:      id.Actor{Kind: id.ActorKindCitizen, ID: uuid.New()},
		Title:       "Pothole",
		Status:      models.StatusNew,
		CreatedAt:   now,
	}
	return &service.Detail{
		Complaint: &models.Complaint{
			ID:        entry.ComplaintID,
			CitizenID: id.CitizenID(entry.Author.ID),
			Authority: "public-works",
			CreatedAt: now,
		},
		Current: entry,
		History: []models.HistoryEntry{entry},
	}
}

func serve(t *testing.T, svc Service, actor id.Actor, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	h := New(svc, slog.New(slog.DiscardHandler))
	r.Route("/complaints", h.Register)
	h.RegisterLockRelease(r)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if !actor.IsZero() {
		req = req.WithContext(requestcontext.WithActor(req.Context(), actor))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreate(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindCitizen, ID: uuid.New()}

	t.Run("returns 201 with the detail", func(t *testing.T) {
		svc := &stubService{detail: testDetail()}
		rec := serve(t, svc, actor, http.MethodPost, "/complaints/", map[string]any{
			"title":     "Pothole",
			"authority": "public-works",
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp DetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "NEW", resp.Status)
		assert.Len(t, resp.History, 1)
	})

	t.Run("rejects a missing title before the service runs", func(t *testing.T) {
		svc := &stubService{err: assertNotCalledErr}
		rec := serve(t, svc, actor, http.MethodPost, "/complaints/", map[string]any{
			"authority": "public-works",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an unauthenticated request", func(t *testing.T) {
		rec := serve(t, &stubService{}, id.Actor{}, http.MethodPost, "/complaints/", map[string]any{
			"title": "x", "authority": "public-works",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

var assertNotCalledErr = dErrors.New(dErrors.CodeInternal, "service should not have been called")

func TestHandleGet(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindCitizen, ID: uuid.New()}

	t.Run("returns the detail", func(t *testing.T) {
		svc := &stubService{detail: testDetail()}
		rec := serve(t, svc, actor, http.MethodGet, "/complaints/"+svc.detail.Complaint.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		require.Len(t, svc.lastIDs, 1)
		assert.Equal(t, svc.detail.Complaint.ID, svc.lastIDs[0])
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		rec := serve(t, &stubService{}, actor, http.MethodGet, "/complaints/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not_found maps to 404", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeNotFound, "complaint not found")}
		rec := serve(t, svc, actor, http.MethodGet, "/complaints/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestErrorStatusMapping(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindStaff, ID: uuid.New(), Authority: "public-works"}
	complaintID := uuid.NewString()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"lock conflict maps to 409", dErrors.New(dErrors.CodeLockConflict, "held elsewhere"), http.StatusConflict},
		{"invalid state maps to 409", dErrors.New(dErrors.CodeInvalidState, "complaint is closed"), http.StatusConflict},
		{"illegal transition maps to 422", dErrors.New(dErrors.CodeIllegalTransition, "no such edge"), http.StatusUnprocessableEntity},
		{"internal maps to 500", dErrors.New(dErrors.CodeInternal, "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			rec := serve(t, svc, actor, http.MethodPost, "/complaints/"+complaintID+"/lock", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindStaff, ID: uuid.New(), Authority: "public-works"}
	svc := &stubService{err: dErrors.New(dErrors.CodeInternal, "pq: connection refused")}

	rec := serve(t, svc, actor, http.MethodPost, "/complaints/"+uuid.NewString()+"/lock", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "error_description")
}

func TestHandleUpdate(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindStaff, ID: uuid.New(), Authority: "public-works"}

	t.Run("returns the appended entry", func(t *testing.T) {
		entry := testDetail().Current
		svc := &stubService{entry: &entry}
		rec := serve(t, svc, actor, http.MethodPatch, "/complaints/"+entry.ComplaintID.String(), map[string]any{
			"status": "in_review",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, entry.ID.String(), resp.ID)
	})

	t.Run("unknown status is a 400", func(t *testing.T) {
		svc := &stubService{err: assertNotCalledErr}
		rec := serve(t, svc, actor, http.MethodPatch, "/complaints/"+uuid.NewString(), map[string]any{
			"status": "WONTFIX",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lowercase status is normalized", func(t *testing.T) {
		req := &UpdateComplaintRequest{Status: strPtr("resolved")}
		require.NoError(t, req.Validate())
		edit := req.Edit()
		require.NotNil(t, edit.Status)
		assert.Equal(t, models.StatusResolved, *edit.Status)
	})
}

func TestHandleList(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindCitizen, ID: uuid.New()}
	detail := testDetail()
	svc := &stubService{list: []service.Summary{{
		Complaint: detail.Complaint,
		Status:    models.StatusNew,
		Title:     "Pothole",
		UpdatedAt: detail.Current.CreatedAt,
	}}}

	rec := serve(t, svc, actor, http.MethodGet, "/complaints/?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Complaints, 1)
	assert.Equal(t, "NEW", resp.Complaints[0].Status)
}

func TestHandleReleaseAll(t *testing.T) {
	actor := id.Actor{Kind: id.ActorKindStaff, ID: uuid.New(), Authority: "public-works"}
	rec := serve(t, &stubService{}, actor, http.MethodPost, "/locks/release-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReleaseAllResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Released)
}

func strPtr(s string) *string { return &s }
