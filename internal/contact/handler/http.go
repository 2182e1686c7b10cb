package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rocr/backend/internal/contact/domain"
	"rocr/backend/internal/contact/service"
	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/platform/validation"
)

const (
	defaultPerPage = 20
	maxNotesLength = 5000
)

// ContactHandler serves /api/v1/contacts.
type ContactHandler struct {
	contacts *service.ContactService
	validate *validation.Validator
}

// NewContactHandler returns a ContactHandler.
func NewContactHandler(contacts *service.ContactService, validate *validation.Validator) *ContactHandler {
	return &ContactHandler{contacts: contacts, validate: validate}
}

type submitRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
	Source  string `json:"source" validate:"omitempty,max=100"`
}

type listQuery struct {
	Page         int    `json:"page" validate:"min=1"`
	PerPage      int    `json:"perPage" validate:"min=1,max=100"`
	Status       string `json:"status" validate:"omitempty,oneof=unread read in_progress replied archived"`
	AssignedToID string `json:"assignedToId" validate:"omitempty,uuid"`
	Search       string `json:"search"`
}

type updateRequest struct {
	Status       *string                `json:"status" validate:"omitempty,oneof=unread read in_progress replied archived"`
	AssignedToID httpx.Nullable[string] `json:"assignedToId"`
	Notes        httpx.Nullable[string] `json:"notes"`
}

// Submit handles POST /contacts. It is public.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) error {
	var req submitRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	c, err := h.contacts.Submit(r.Context(), service.SubmitInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Source:  req.Source,
	})
	if err != nil {
		return err
	}
	httpx.Data(w, http.StatusCreated, map[string]string{
		"id":      c.ID,
		"message": "Contact form submitted successfully",
	})
	return nil
}

// List handles GET /contacts with page, perPage, status, search and assignedToId query parameters.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	lq := listQuery{
		Page:         1,
		PerPage:      defaultPerPage,
		Status:       q.Get("status"),
		AssignedToID: q.Get("assignedToId"),
		Search:       q.Get("search"),
	}
	var err error
	if lq.Page, err = intParam(q.Get("page"), "page", lq.Page); err != nil {
		return err
	}
	if lq.PerPage, err = intParam(q.Get("perPage"), "perPage", lq.PerPage); err != nil {
		return err
	}
	if err := h.validate.Struct(lq); err != nil {
		return err
	}
	page, err := h.contacts.List(r.Context(), domain.Filter{
		Status:       domain.Status(lq.Status),
		AssignedToID: lq.AssignedToID,
		Search:       lq.Search,
	}, lq.Page, lq.PerPage)
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{
		Data: page.Items,
		Meta: map[string]int{
			"page":       page.Page,
			"perPage":    page.PerPage,
			"total":      page.Total,
			"totalPages": page.TotalPages,
		},
	})
	return nil
}

// Get handles GET /contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) error {
	c, err := h.contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return contactError(err)
	}
	httpx.Data(w, http.StatusOK, c)
	return nil
}

// Update handles PATCH /contacts/{id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) error {
	var req updateRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	if req.AssignedToID.Value != nil {
		if err := h.validate.Var("assignedToId", *req.AssignedToID.Value, "uuid"); err != nil {
			return err
		}
	}
	if req.Notes.Value != nil {
		if err := h.validate.Var("notes", *req.Notes.Value, "max="+strconv.Itoa(maxNotesLength)); err != nil {
			return err
		}
	}
	in := service.UpdateInput{
		SetAssignedToID: req.AssignedToID.Set,
		AssignedToID:    req.AssignedToID.Value,
		SetNotes:        req.Notes.Set,
		Notes:           req.Notes.Value,
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		in.Status = &st
	}
	c, err := h.contacts.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		return contactError(err)
	}
	httpx.Data(w, http.StatusOK, c)
	return nil
}

// Delete handles DELETE /contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	if err := h.contacts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		return contactError(err)
	}
	httpx.Message(w, "Contact deleted successfully")
	return nil
}

// Stats handles GET /contacts/stats/summary.
func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	st, err := h.contacts.Stats(r.Context())
	if err != nil {
		return err
	}
	httpx.Data(w, http.StatusOK, st)
	return nil
}

func intParam(raw, field string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.BadRequest(apperror.CodeValidation, "Validation failed").
			WithDetails([]validation.FieldError{{Field: field, Message: field + " must be a number"}})
	}
	return n, nil
}

func contactError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return apperror.NotFound("Contact not found")
	case errors.Is(err, service.ErrAssigneeNotFound):
		return apperror.BadRequest(apperror.CodeUserNotFound, "Assigned user not found")
	}
	return err
}
