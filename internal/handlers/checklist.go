package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChecklistService is the part of the fleet service behind /checklists.
type ChecklistService interface {
	SubmitChecklist(ctx context.Context, identity fleet.Identity, req models.ChecklistRequest) (*models.Checklist, error)
	TodayChecklist(ctx context.Context, identity fleet.Identity, vehicleID *primitive.ObjectID) (*models.Checklist, error)
	ListChecklists(ctx context.Context, identity fleet.Identity, filter models.ChecklistFilter) ([]models.Checklist, error)
	GetChecklist(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Checklist, error)
	UpdateChecklist(ctx context.Context, identity fleet.Identity, id primitive.ObjectID, req models.ChecklistRequest) (*models.Checklist, error)
	DeleteChecklist(ctx context.Context, owner, id primitive.ObjectID) error
}

// ChecklistHandler serves /checklists.
type ChecklistHandler struct {
	service ChecklistService
}

// NewChecklistHandler creates a new checklist handler
func NewChecklistHandler(service ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{service: service}
}

func checklistFilter(r *http.Request) (models.ChecklistFilter, error) {
	var filter models.ChecklistFilter
	var err error
	if filter.Vehicle, err = optionalQueryID(r, "vehicle"); err != nil {
		return filter, err
	}
	if filter.Driver, err = optionalQueryID(r, "driver"); err != nil {
		return filter, err
	}
	q := r.URL.Query()
	if day := q.Get("date"); day != "" {
		t, err := models.ParseTime(day)
		if err != nil {
			return filter, badRequest("Invalid date " + day)
		}
		filter.Day = models.DayKey(t)
	}
	if since := q.Get("since"); since != "" {
		t, err := models.ParseTime(since)
		if err != nil {
			return filter, badRequest("Invalid date " + since)
		}
		filter.Since = &t
	}
	return filter, nil
}

// List handles GET /checklists
func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filter, err := checklistFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	checklists, err := h.service.ListChecklists(r.Context(), id, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, checklists)
}

// Today handles GET /checklists/today. data is null when nothing was
// submitted today.
func (h *ChecklistHandler) Today(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vehicleID, err := optionalQueryID(r, "vehicle")
	if err != nil {
		writeError(w, r, err)
		return
	}
	checklist, err := h.service.TodayChecklist(r.Context(), id, vehicleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":   true,
		"completed": checklist != nil,
		"data":      checklist,
	})
}

// Get handles GET /checklists/{id}
func (h *ChecklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	checklistID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	checklist, err := h.service.GetChecklist(r.Context(), id, checklistID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, checklist)
}

// Create handles POST /checklists. A second submission for the same vehicle
// and day is rejected with the existing checklist.
func (h *ChecklistHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req models.ChecklistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	checklist, err := h.service.SubmitChecklist(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, checklist)
}

// Update handles PUT /checklists/{id}
func (h *ChecklistHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	checklistID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.ChecklistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	checklist, err := h.service.UpdateChecklist(r.Context(), id, checklistID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, checklist)
}

// Delete handles DELETE /checklists/{id}
func (h *ChecklistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	checklistID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteChecklist(r.Context(), id.UserID, checklistID); err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w)
}
