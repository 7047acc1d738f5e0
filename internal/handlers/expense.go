package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseService is the part of the fleet service behind /expenses.
type ExpenseService interface {
	SubmitExpense(ctx context.Context, identity fleet.Identity, req models.ExpenseRequest) (*models.Expense, error)
	ListExpenses(ctx context.Context, identity fleet.Identity, filter models.ExpenseFilter) ([]models.Expense, error)
	ExpenseSummary(ctx context.Context, identity fleet.Identity) (*models.ExpenseSummary, error)
	GetExpense(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Expense, error)
	ExpenseBill(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Attachment, error)
	UpdateExpense(ctx context.Context, identity fleet.Identity, id primitive.ObjectID, req models.ExpenseRequest) (*models.Expense, error)
	DeleteExpense(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) error
	ApproveExpense(ctx context.Context, owner, id primitive.ObjectID) (*models.Expense, error)
	RejectExpense(ctx context.Context, owner, id primitive.ObjectID, reason string) (*models.Expense, error)
}

// ExpenseHandler serves /expenses.
type ExpenseHandler struct {
	service ExpenseService
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(service ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// expenseNumericFields are sent as numbers when a form is re-encoded.
var expenseNumericFields = []string{"amount"}

func expenseFilter(r *http.Request) (models.ExpenseFilter, error) {
	var filter models.ExpenseFilter
	var err error
	if filter.Vehicle, err = optionalQueryID(r, "vehicle"); err != nil {
		return filter, err
	}
	if filter.Driver, err = optionalQueryID(r, "driver"); err != nil {
		return filter, err
	}
	q := r.URL.Query()
	if status := models.ExpenseStatus(q.Get("status")); status != "" {
		if !status.IsValid() {
			return filter, badRequest("Invalid expense status " + string(status))
		}
		filter.Status = status
	}
	if typ := models.ExpenseType(q.Get("type")); typ != "" {
		if !typ.IsValid() {
			return filter, badRequest("Invalid expense type " + string(typ))
		}
		filter.Type = typ
	}
	return filter, nil
}

// List handles GET /expenses
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filter, err := expenseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.service.ListExpenses(r.Context(), id, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, expenses)
}

// Summary handles GET /expenses/summary
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ExpenseSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

// Get handles GET /expenses/{id}
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	expenseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := h.service.GetExpense(r.Context(), id, expenseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, expense)
}

// Bill handles GET /expenses/{id}/bill
func (h *ExpenseHandler) Bill(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	expenseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	bill, err := h.service.ExpenseBill(r.Context(), id, expenseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveAttachment(w, r, bill)
}

// Create handles POST /expenses, as JSON or as a form carrying the bill photo.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req models.ExpenseRequest
	bill, err := decodeUpload(w, r, &req, expenseNumericFields...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.BillPhoto = bill
	expense, err := h.service.SubmitExpense(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, expense)
}

// Update handles PUT /expenses/{id}. Drivers may only edit pending expenses.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	expenseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.ExpenseRequest
	bill, err := decodeUpload(w, r, &req, expenseNumericFields...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.BillPhoto = bill
	expense, err := h.service.UpdateExpense(r.Context(), id, expenseID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, expense)
}

// Delete handles DELETE /expenses/{id}
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	expenseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id, expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w)
}

// Approve handles PUT /expenses/{id}/approve
func (h *ExpenseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	expenseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := h.service.ApproveExpense(r.Context(), id.UserID, expenseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, expense)
}

// Reject handles PUT /expenses/{id}/reject
func (h *ExpenseHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	expenseID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := h.service.RejectExpense(r.Context(), id.UserID, expenseID, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, expense)
}
