package handler

import (
	"time"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/service"
)

// ComplaintResponse is the header-plus-derived-status shape used in listings
// and as the envelope of the detail view.
type ComplaintResponse struct {
	ID        string    `json:"id"`
	CitizenID string    `json:"citizen_id"`
	Category  string    `json:"category,omitempty"`
	Authority string    `json:"authority"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryResponse is one history entry in the detail view.
type EntryResponse struct {
	ID          string    `json:"id"`
	AuthorKind  string    `json:"author_kind,omitempty"`
	AuthorID    string    `json:"author_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	CitizenNote *string   `json:"citizen_note,omitempty"`
	StaffNote   *string   `json:"staff_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DetailResponse is the HTTP response for GET /complaints/{id}.
type DetailResponse struct {
	ComplaintResponse
	History []EntryResponse `json:"history"`
}

// ListResponse is the HTTP response for GET /complaints.
type ListResponse struct {
	Complaints []ComplaintResponse `json:"complaints"`
}

// ReleaseAllResponse is the HTTP response for POST /locks/release-all.
type ReleaseAllResponse struct {
	Released int `json:"released"`
}

// FromSummary converts a listing row to its HTTP shape.
func FromSummary(s service.Summary) ComplaintResponse {
	return ComplaintResponse{
		ID:        s.Complaint.ID.String(),
		CitizenID: s.Complaint.CitizenID.String(),
		Category:  s.Complaint.Category,
		Authority: s.Complaint.Authority,
		Status:    string(s.Status),
		Title:     s.Title,
		Locked:    s.Complaint.Locked(),
		CreatedAt: s.Complaint.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// FromDetail converts the full complaint view to its HTTP shape.
func FromDetail(d *service.Detail) *DetailResponse {
	history := make([]EntryResponse, 0, len(d.History))
	for _, e := range d.History {
		history = append(history, fromEntry(e))
	}
	return &DetailResponse{
		ComplaintResponse: ComplaintResponse{
			ID:        d.Complaint.ID.String(),
			CitizenID: d.Complaint.CitizenID.String(),
			Category:  d.Complaint.Category,
			Authority: d.Complaint.Authority,
			Status:    string(d.Current.Status),
			Title:     d.Current.Title,
			Locked:    d.Complaint.Locked(),
			CreatedAt: d.Complaint.CreatedAt,
			UpdatedAt: d.Current.CreatedAt,
		},
		History: history,
	}
}

func fromEntry(e models.HistoryEntry) EntryResponse {
	resp := EntryResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		Status:      string(e.Status),
		Location:    e.Location,
		Attachments: e.Attachments,
		CitizenNote: e.CitizenNote,
		StaffNote:   e.StaffNote,
		CreatedAt:   e.CreatedAt,
	}
	if !e.SystemAuthored() {
		resp.AuthorKind = string(e.Author.Kind)
		resp.AuthorID = e.Author.ID.String()
	}
	return resp
}
