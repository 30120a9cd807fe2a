package handler

import (
	"strings"

	"grievance/internal/complaint/models"
	dErrors "grievance/pkg/domain-errors"
)

// CreateComplaintRequest is the HTTP request body for POST /complaints.
type CreateComplaintRequest struct {
	Category    string   `json:"category"`
	Authority   string   `json:"authority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Attachments []string `json:"attachments"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateComplaintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Title = strings.TrimSpace(r.Title)
	r.Authority = strings.TrimSpace(r.Authority)
	r.Category = strings.TrimSpace(r.Category)

	if r.Title == "" {
		return dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeBadRequest, "title must be at most 200 characters")
	}
	if r.Authority == "" {
		return dErrors.New(dErrors.CodeBadRequest, "authority is required")
	}
	if len(r.Attachments) > 10 {
		return dErrors.New(dErrors.CodeBadRequest, "at most 10 attachments are allowed")
	}
	return nil
}

// UpdateComplaintRequest is the HTTP request body for PATCH /complaints/{id}.
// Absent fields keep the values carried forward from the latest history
// entry.
type UpdateComplaintRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	Location    *string  `json:"location"`
	Attachments []string `json:"attachments"`
	CitizenNote *string  `json:"citizen_note"`
	StaffNote   *string  `json:"staff_note"`

	parsedStatus *models.Status
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpdateComplaintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeBadRequest, "title cannot be empty")
		}
		if len(trimmed) > 200 {
			return dErrors.New(dErrors.CodeBadRequest, "title must be at most 200 characters")
		}
		r.Title = &trimmed
	}
	if len(r.Attachments) > 10 {
		return dErrors.New(dErrors.CodeBadRequest, "at most 10 attachments are allowed")
	}

	if r.Status != nil {
		status := models.Status(strings.ToUpper(strings.TrimSpace(*r.Status)))
		if !status.IsValid() {
			return dErrors.New(dErrors.CodeBadRequest, "unknown status "+*r.Status)
		}
		r.parsedStatus = &status
	}
	return nil
}

// Edit converts the validated request into the ledger overlay.
func (r *UpdateComplaintRequest) Edit() models.EntryEdit {
	return models.EntryEdit{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.parsedStatus,
		Location:    r.Location,
		Attachments: r.Attachments,
		CitizenNote: r.CitizenNote,
		StaffNote:   r.StaffNote,
	}
}
