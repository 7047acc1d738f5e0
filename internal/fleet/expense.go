package fleet

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// applyExpense copies the submitted fields of req onto e. Status and review
// fields are never taken from a request.
func applyExpense(e *models.Expense, req models.ExpenseRequest) {
	if req.Type != nil {
		e.Type = *req.Type
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.Location != nil {
		e.Location = req.Location
	}
	if req.BillPhoto != nil {
		e.BillPhoto = req.BillPhoto
	}
}

func validateExpense(e *models.Expense) error {
	switch {
	case e.Type == "":
		return invalid("type", "Please provide expense type")
	case !e.Type.IsValid():
		return invalid("type", "Invalid expense type")
	case e.Amount <= 0:
		return invalid("amount", "Please provide amount")
	}
	return nil
}

// scopeExpenses narrows q to what a may see: the owner's expenses, or a
// driver's own.
func scopeExpenses(a *actor, filter models.ExpenseFilter) db.ExpenseQuery {
	q := db.ExpenseQuery{Owner: &a.owner, ExpenseFilter: filter}
	if a.driver != nil {
		q.Driver = &a.driver.ID
	}
	return q
}

// ListExpenses lists expenses matching filter, newest first.
func (s *Service) ListExpenses(ctx context.Context, identity Identity, filter models.ExpenseFilter) ([]models.Expense, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.FindExpenses(ctx, scopeExpenses(a, filter))
	if err != nil {
		return nil, storeErr(err, "Expense")
	}
	r := s.newRefs()
	for i := range expenses {
		expenses[i].VehicleInfo = r.vehicle(ctx, expenses[i].Vehicle)
		expenses[i].DriverInfo = r.driver(ctx, expenses[i].Driver)
	}
	return expenses, nil
}

// ExpenseSummary totals the expenses the identity may see.
func (s *Service) ExpenseSummary(ctx context.Context, identity Identity) (*models.ExpenseSummary, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	summary, err := s.expenses.SummarizeExpenses(ctx, scopeExpenses(a, models.ExpenseFilter{}))
	if err != nil {
		return nil, storeErr(err, "Expense")
	}
	return summary, nil
}

// visibleExpense loads an expense a may see.
func (s *Service) visibleExpense(ctx context.Context, a *actor, id primitive.ObjectID) (*models.Expense, error) {
	expense, err := s.expenses.FindExpenseByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Expense")
	}
	if expense.Owner != a.owner {
		return nil, ErrForbidden
	}
	if a.driver != nil && expense.Driver != a.driver.ID {
		return nil, ErrForbidden
	}
	return expense, nil
}

// GetExpense returns one expense with its vehicle and driver populated.
func (s *Service) GetExpense(ctx context.Context, identity Identity, id primitive.ObjectID) (*models.Expense, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	expense, err := s.visibleExpense(ctx, a, id)
	if err != nil {
		return nil, err
	}
	r := s.newRefs()
	expense.VehicleInfo = r.vehicle(ctx, expense.Vehicle)
	expense.DriverInfo = r.driver(ctx, expense.Driver)
	return expense, nil
}

// ExpenseBill returns the bill photo of an expense.
func (s *Service) ExpenseBill(ctx context.Context, identity Identity, id primitive.ObjectID) (*models.Attachment, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	expense, err := s.visibleExpense(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if expense.BillPhoto == nil || expense.BillPhoto.Data == "" {
		return nil, &NotFoundError{Message: "No bill photo attached to this expense"}
	}
	return expense.BillPhoto, nil
}

// UpdateExpense updates the submitted fields of an expense. Owners may edit
// any of theirs; drivers only their own while it is Pending.
func (s *Service) UpdateExpense(ctx context.Context, identity Identity, id primitive.ObjectID, req models.ExpenseRequest) (*models.Expense, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	expense, err := s.visibleExpense(ctx, a, id)
	if err != nil {
		return nil, err
	}
	pendingOnly := a.driver != nil
	if pendingOnly && expense.Status != models.ExpensePending {
		return nil, ErrExpenseFinalized
	}

	applyExpense(expense, req)
	if err := validateExpense(expense); err != nil {
		return nil, err
	}
	if err := s.expenses.UpdateExpenseDetails(ctx, expense, pendingOnly); err != nil {
		if pendingOnly && errors.Is(err, db.ErrNotFound) {
			return nil, ErrExpenseFinalized
		}
		return nil, storeErr(err, "Expense")
	}
	return expense, nil
}

// DeleteExpense deletes an expense. Drivers may delete only their own Pending
// expenses.
func (s *Service) DeleteExpense(ctx context.Context, identity Identity, id primitive.ObjectID) error {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return err
	}
	expense, err := s.visibleExpense(ctx, a, id)
	if err != nil {
		return err
	}
	if a.driver != nil && expense.Status != models.ExpensePending {
		return ErrExpenseFinalized
	}
	return storeErr(s.expenses.DeleteExpense(ctx, id), "Expense")
}

// ApproveExpense approves a Pending expense of owner.
func (s *Service) ApproveExpense(ctx context.Context, owner, id primitive.ObjectID) (*models.Expense, error) {
	now := s.now()
	return s.review(ctx, owner, id, db.ExpenseReview{
		Status:     models.ExpenseApproved,
		ApprovedBy: &owner,
		ApprovedAt: &now,
	}, events.ExpenseApproved)
}

// RejectExpense rejects a Pending expense of owner with an optional reason.
func (s *Service) RejectExpense(ctx context.Context, owner, id primitive.ObjectID, reason string) (*models.Expense, error) {
	return s.review(ctx, owner, id, db.ExpenseReview{
		Status:          models.ExpenseRejected,
		RejectionReason: strings.TrimSpace(reason),
	}, events.ExpenseRejected)
}

// review applies a terminal status. The store write only matches a Pending
// expense, so of two concurrent reviews exactly one wins.
func (s *Service) review(ctx context.Context, owner, id primitive.ObjectID, review db.ExpenseReview, event events.Type) (*models.Expense, error) {
	expense, err := s.expenses.FindExpenseByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Expense")
	}
	if expense.Owner != owner {
		return nil, ErrForbidden
	}
	if expense.Status != models.ExpensePending {
		return nil, ErrExpenseFinalized
	}

	reviewed, err := s.expenses.ReviewExpense(ctx, id, review)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrExpenseFinalized
	}
	if err != nil {
		return nil, storeErr(err, "Expense")
	}

	log.WithFields(log.Fields{"expense_id": id.Hex(), "status": reviewed.Status}).Info("expense reviewed")
	s.publish(ctx, event, owner, id, reviewed)
	return reviewed, nil
}
