package models

import (
	"time"

	id "grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
)

// HistoryEntry is one immutable snapshot in a complaint's ledger. Entries are
// never updated or deleted; each mutation of a complaint appends exactly one
// new entry, and the entry with the greatest CreatedAt (ties broken by Seq)
// is the complaint's current state.
type HistoryEntry struct {
	ID          id.EntryID     `json:"id"`
	ComplaintID id.ComplaintID `json:"complaint_id"`
	// Author is the actor that produced this snapshot. The zero actor marks a
	// system-generated entry.
	Author      id.Actor  `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	CitizenNote *string   `json:"citizen_note,omitempty"`
	StaffNote   *string   `json:"staff_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Seq is the store-assigned insertion order, used only to break CreatedAt
	// ties when deriving the current entry.
	Seq int64 `json:"-"`
}

// SystemAuthored reports whether the entry was produced by the system rather
// than a citizen or internal user.
func (e *HistoryEntry) SystemAuthored() bool {
	return e.Author.IsZero()
}

// EntryEdit is the caller's overlay for an Update. Nil pointer fields keep
// the value carried forward from the latest entry; nil Attachments keeps the
// previous attachment list.
type EntryEdit struct {
	Title       *string
	Description *string
	Status      *Status
	Location    *string
	Attachments []string
	CitizenNote *string
	StaffNote   *string
}

// Empty reports whether the edit changes nothing.
func (e EntryEdit) Empty() bool {
	return e.Title == nil && e.Description == nil && e.Status == nil &&
		e.Location == nil && e.Attachments == nil && e.CitizenNote == nil && e.StaffNote == nil
}

// NextEntry builds the successor snapshot: the latest entry's fields carried
// forward with the edit overlaid. Transition legality is validated by the
// caller before this runs; NextEntry only assembles the row.
func NextEntry(entryID id.EntryID, latest HistoryEntry, edit EntryEdit, author id.Actor, now time.Time) HistoryEntry {
	next := HistoryEntry{
		ID:          entryID,
		ComplaintID: latest.ComplaintID,
		Author:      author,
		Title:       latest.Title,
		Description: latest.Description,
		Status:      latest.Status,
		Location:    latest.Location,
		Attachments: latest.Attachments,
		CitizenNote: latest.CitizenNote,
		StaffNote:   latest.StaffNote,
		CreatedAt:   now,
	}
	if edit.Title != nil {
		next.Title = *edit.Title
	}
	if edit.Description != nil {
		next.Description = *edit.Description
	}
	if edit.Status != nil {
		next.Status = *edit.Status
	}
	if edit.Location != nil {
		next.Location = *edit.Location
	}
	if edit.Attachments != nil {
		next.Attachments = edit.Attachments
	}
	if edit.CitizenNote != nil {
		next.CitizenNote = edit.CitizenNote
	}
	if edit.StaffNote != nil {
		next.StaffNote = edit.StaffNote
	}
	return next
}

// NewInitialEntry builds the NEW entry appended atomically with the header at
// submission time.
func NewInitialEntry(entryID id.EntryID, complaint *Complaint, title, description, location string, attachments []string, author id.Actor, now time.Time) (HistoryEntry, error) {
	if title == "" {
		return HistoryEntry{}, dErrors.New(dErrors.CodeBadRequest, "complaint title is required")
	}
	return HistoryEntry{
		ID:          entryID,
		ComplaintID: complaint.ID,
		Author:      author,
		Title:       title,
		Description: description,
		Status:      StatusNew,
		Location:    location,
		Attachments: attachments,
		CreatedAt:   now,
	}, nil
}

// CurrentOf derives the current entry from a ledger slice: greatest
// CreatedAt, ties broken by Seq. Returns false for an empty ledger (which
// only a store bug can produce; creation always appends the NEW entry).
func CurrentOf(entries []HistoryEntry) (HistoryEntry, bool) {
	if len(entries) == 0 {
		return HistoryEntry{}, false
	}
	current := entries[0]
	for _, e := range entries[1:] {
		if e.CreatedAt.After(current.CreatedAt) ||
			(e.CreatedAt.Equal(current.CreatedAt) && e.Seq > current.Seq) {
			current = e
		}
	}
	return current, true
}
