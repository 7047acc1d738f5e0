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

// SubmitChecklist records a driver's daily inspection of an assigned vehicle.
// A vehicle gets at most one checklist per local calendar day; a second
// submission fails with an *AlreadyCompletedError carrying the first.
func (s *Service) SubmitChecklist(ctx context.Context, identity Identity, req models.ChecklistRequest) (*models.Checklist, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	if a.driver == nil {
		return nil, ErrForbidden
	}
	if len(a.driver.AssignedVehicles) == 0 || req.Vehicle.ID == nil {
		return nil, &NoVehicleError{Submission: "checklists"}
	}
	vehicleID := *req.Vehicle.ID
	if _, err := s.ownedVehicle(ctx, a.owner, vehicleID); err != nil {
		return nil, err
	}
	if !a.driver.HasVehicle(vehicleID) {
		return nil, ErrForbidden
	}

	existing, err := s.todayChecklist(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &AlreadyCompletedError{Existing: existing}
	}

	now := s.now()
	checklist := &models.Checklist{
		Vehicle:            vehicleID,
		Driver:             a.driver.ID,
		Date:               now,
		Day:                models.DayKey(now),
		OdometerReading:    req.OdometerReading,
		EngineHoursReading: req.EngineHoursReading,
		SubmittedAt:        now,
		Owner:              a.owner,
	}
	if req.Items != nil {
		checklist.Items = *req.Items
	}
	if req.Remarks != nil {
		checklist.Remarks = strings.TrimSpace(*req.Remarks)
	}
	checklist.Derive()

	if err := s.checklists.InsertChecklist(ctx, checklist); err != nil {
		var dup *db.DuplicateKeyError
		if errors.As(err, &dup) && dup.Index == db.IndexChecklistDay {
			return nil, s.lostChecklistRace(ctx, checklist)
		}
		return nil, storeErr(err, "Checklist")
	}

	log.WithFields(log.Fields{
		"checklist_id": checklist.ID.Hex(),
		"vehicle_id":   vehicleID.Hex(),
		"all_checked":  checklist.AllChecked,
	}).Info("checklist submitted")
	s.publish(ctx, events.ChecklistSubmitted, a.owner, checklist.ID, checklist)
	return checklist, nil
}

// lostChecklistRace reports the checklist stored first for the same vehicle
// and day as checklist. The clock may have passed midnight since.
func (s *Service) lostChecklistRace(ctx context.Context, checklist *models.Checklist) error {
	from := models.StartOfDay(checklist.Date)
	existing, err := s.checklists.FindChecklistInWindow(ctx, checklist.Vehicle, from, from.AddDate(0, 0, 1))
	if err != nil {
		return storeErr(err, "Checklist")
	}
	return &AlreadyCompletedError{Existing: existing}
}

// TodayChecklist returns today's checklist for vehicleID, or nil when none was
// submitted. A driver may omit the vehicle to use their assigned one.
func (s *Service) TodayChecklist(ctx context.Context, identity Identity, vehicleID *primitive.ObjectID) (*models.Checklist, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	if vehicleID == nil {
		if a.driver == nil || len(a.driver.AssignedVehicles) == 0 {
			return nil, nil
		}
		vehicleID = &a.driver.AssignedVehicles[0].ID
	}
	if _, err := s.ownedVehicle(ctx, a.owner, *vehicleID); err != nil {
		return nil, err
	}
	return s.todayChecklist(ctx, *vehicleID)
}

// SubmitExpense records an expense. Drivers submit against their assigned
// vehicle, which is the default when none is given; owners name both the
// vehicle and the driver. The status always starts Pending.
func (s *Service) SubmitExpense(ctx context.Context, identity Identity, req models.ExpenseRequest) (*models.Expense, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Status: models.ExpensePending,
		Owner:  a.owner,
		Date:   s.now(),
	}

	if a.driver != nil {
		if len(a.driver.AssignedVehicles) == 0 {
			return nil, &NoVehicleError{Submission: "expenses"}
		}
		expense.Driver = a.driver.ID
		expense.Vehicle = a.driver.AssignedVehicles[0].ID
		if req.Vehicle.ID != nil {
			if !a.driver.HasVehicle(*req.Vehicle.ID) {
				return nil, ErrForbidden
			}
			expense.Vehicle = *req.Vehicle.ID
		}
	} else {
		if req.Vehicle.ID == nil {
			return nil, invalid("vehicle", "Please provide vehicle")
		}
		if req.Driver.ID == nil {
			return nil, invalid("driver", "Please provide driver")
		}
		if _, err := s.ownedVehicle(ctx, a.owner, *req.Vehicle.ID); err != nil {
			return nil, err
		}
		if _, err := s.ownedDriver(ctx, a.owner, *req.Driver.ID); err != nil {
			return nil, err
		}
		expense.Vehicle = *req.Vehicle.ID
		expense.Driver = *req.Driver.ID
	}

	applyExpense(expense, req)
	if err := validateExpense(expense); err != nil {
		return nil, err
	}
	if err := s.expenses.InsertExpense(ctx, expense); err != nil {
		return nil, storeErr(err, "Expense")
	}

	log.WithFields(log.Fields{
		"expense_id": expense.ID.Hex(),
		"vehicle_id": expense.Vehicle.Hex(),
		"type":       expense.Type,
		"amount":     expense.Amount,
	}).Info("expense submitted")
	s.publish(ctx, events.ExpenseSubmitted, a.owner, expense.ID, expense)
	return expense, nil
}
