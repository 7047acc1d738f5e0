package fleet

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultFuelType       = "Diesel"
	detailExpenseLimit    = 10
	detailChecklistWindow = 7
)

// applyVehicle copies the set fields of req onto v.
func applyVehicle(v *models.Vehicle, req models.VehicleRequest) {
	if req.VehicleNumber != nil {
		v.VehicleNumber = strings.ToUpper(strings.TrimSpace(*req.VehicleNumber))
	}
	if req.ChassisNumber != nil {
		v.ChassisNumber = strings.TrimSpace(*req.ChassisNumber)
	}
	if req.Model != nil {
		v.Model = strings.TrimSpace(*req.Model)
	}
	if req.ManufacturingYear != nil {
		v.ManufacturingYear = *req.ManufacturingYear
	}
	if req.FuelType != nil {
		v.FuelType = strings.TrimSpace(*req.FuelType)
	}
	if req.DrumCapacity != nil {
		v.DrumCapacity = *req.DrumCapacity
	}
	if req.RegistrationDate != nil {
		v.RegistrationDate = *req.RegistrationDate
	}
	if req.CurrentOdometer != nil {
		v.CurrentOdometer = *req.CurrentOdometer
	}
	if req.EngineHours != nil {
		v.EngineHours = *req.EngineHours
	}
	if req.Status != nil {
		v.Status = *req.Status
	}
}

func validateVehicle(v *models.Vehicle) error {
	switch {
	case v.VehicleNumber == "":
		return invalid("vehicleNumber", "Please provide vehicle number")
	case v.ChassisNumber == "":
		return invalid("chassisNumber", "Please provide chassis number")
	case v.Model == "":
		return invalid("model", "Please provide model")
	case v.ManufacturingYear <= 0:
		return invalid("manufacturingYear", "Please provide manufacturing year")
	case v.DrumCapacity <= 0:
		return invalid("drumCapacity", "Please provide drum capacity")
	case v.RegistrationDate.IsZero():
		return invalid("registrationDate", "Please provide registration date")
	case !v.Status.IsValid():
		return invalid("status", "Invalid vehicle status")
	}
	return nil
}

// CreateVehicle creates a vehicle, optionally already assigned to a driver
// that holds no other vehicle.
func (s *Service) CreateVehicle(ctx context.Context, owner primitive.ObjectID, req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{
		FuelType: defaultFuelType,
		Status:   models.VehicleActive,
		Owner:    owner,
	}
	applyVehicle(vehicle, req)
	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}

	driverID := req.AssignedDriver.ID
	if driverID != nil {
		if _, err := s.ownedDriver(ctx, owner, *driverID); err != nil {
			return nil, err
		}
		if err := s.checkDriverFree(ctx, *driverID, nil); err != nil {
			return nil, err
		}
		vehicle.AssignedDriver = driverID
	}

	vehicle.ID = primitive.NewObjectID()
	if err := s.vehicles.InsertVehicle(ctx, vehicle); err != nil {
		if driverID != nil {
			return nil, s.assignmentErr(ctx, err, *driverID, vehicle.ID)
		}
		return nil, storeErr(err, "Vehicle")
	}
	if err := s.attachDriver(ctx, vehicle); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"vehicle_id": vehicle.ID.Hex(), "vehicle_number": vehicle.VehicleNumber}).Info("vehicle created")
	return vehicle, nil
}

// UpdateVehicle updates the set fields of an owned vehicle. A set
// AssignedDriver runs the same conflict check as AssignDriverToVehicle before
// anything is written.
func (s *Service) UpdateVehicle(ctx context.Context, owner, id primitive.ObjectID, req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.ownedVehicle(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	applyVehicle(vehicle, req)
	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}

	reassign := req.AssignedDriver.Set && !sameID(vehicle.AssignedDriver, req.AssignedDriver.ID)
	newDriver := req.AssignedDriver.ID
	if reassign && newDriver != nil {
		if _, err := s.ownedDriver(ctx, owner, *newDriver); err != nil {
			return nil, err
		}
		if err := s.checkDriverFree(ctx, *newDriver, &id); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.vehicles.UpdateVehicle(ctx, vehicle); err != nil {
			return err
		}
		if reassign {
			return s.vehicles.SetAssignedDriver(ctx, id, newDriver)
		}
		return nil
	})
	if err != nil {
		if reassign && newDriver != nil {
			return nil, s.assignmentErr(ctx, err, *newDriver, id)
		}
		return nil, storeErr(err, "Vehicle")
	}
	if reassign {
		vehicle.AssignedDriver = newDriver
	}
	if err := s.attachDriver(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// ListVehicles lists the owner's vehicles, or a driver's assigned ones.
func (s *Service) ListVehicles(ctx context.Context, identity Identity, status models.VehicleStatus) ([]models.Vehicle, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	filter := db.VehicleFilter{Owner: &a.owner, Status: status}
	if a.driver != nil {
		filter.AssignedDriver = &a.driver.ID
	}
	vehicles, err := s.vehicles.FindVehicles(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "Vehicle")
	}
	r := s.newRefs()
	for i := range vehicles {
		if vehicles[i].AssignedDriver != nil {
			vehicles[i].Driver = r.driver(ctx, *vehicles[i].AssignedDriver)
		}
	}
	return vehicles, nil
}

// GetVehicle returns a vehicle the identity may see: any owned vehicle for an
// owner, an assigned one for a driver.
func (s *Service) GetVehicle(ctx context.Context, identity Identity, id primitive.ObjectID) (*models.Vehicle, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.visibleVehicle(ctx, a, id)
}

func (s *Service) visibleVehicle(ctx context.Context, a *actor, id primitive.ObjectID) (*models.Vehicle, error) {
	vehicle, err := s.ownedVehicle(ctx, a.owner, id)
	if err != nil {
		return nil, err
	}
	if a.driver != nil && !sameID(vehicle.AssignedDriver, &a.driver.ID) {
		return nil, ErrForbidden
	}
	if err := s.attachDriver(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// VehicleDetails returns a vehicle with its last expenses, its documents by
// expiry, the checklists of the last week and today's checklist.
func (s *Service) VehicleDetails(ctx context.Context, identity Identity, id primitive.ObjectID) (*models.VehicleDetails, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.visibleVehicle(ctx, a, id)
	if err != nil {
		return nil, err
	}

	details := &models.VehicleDetails{Vehicle: vehicle}
	r := s.newRefs()
	now := s.now()

	filter := models.ExpenseFilter{Vehicle: &id}
	if a.driver != nil {
		filter.Driver = &a.driver.ID
	}
	details.Expenses, err = s.expenses.FindExpenses(ctx, db.ExpenseQuery{
		ExpenseFilter: filter,
		Limit:         detailExpenseLimit,
	})
	if err != nil {
		return nil, storeErr(err, "Expense")
	}
	for i := range details.Expenses {
		details.Expenses[i].DriverInfo = r.driver(ctx, details.Expenses[i].Driver)
	}

	details.Documents, err = s.documents.FindDocuments(ctx, db.DocumentQuery{DocumentFilter: models.DocumentFilter{Vehicle: &id}})
	if err != nil {
		return nil, storeErr(err, "Document")
	}
	for i := range details.Documents {
		details.Documents[i].Derive(now)
	}

	since := models.StartOfDay(now).AddDate(0, 0, -detailChecklistWindow)
	details.Checklists, err = s.checklists.FindChecklists(ctx, db.ChecklistQuery{
		ChecklistFilter: models.ChecklistFilter{Vehicle: &id, Since: &since},
	})
	if err != nil {
		return nil, storeErr(err, "Checklist")
	}
	for i := range details.Checklists {
		details.Checklists[i].DriverInfo = r.driver(ctx, details.Checklists[i].Driver)
	}

	today, err := s.todayChecklist(ctx, id)
	if err != nil {
		return nil, err
	}
	details.TodayChecklist = today
	details.TodayChecklistCompleted = today != nil
	return details, nil
}

// todayChecklist returns the checklist of vehicleID for the current local day,
// or nil.
func (s *Service) todayChecklist(ctx context.Context, vehicleID primitive.ObjectID) (*models.Checklist, error) {
	from := models.StartOfDay(s.now())
	checklist, err := s.checklists.FindChecklistInWindow(ctx, vehicleID, from, from.AddDate(0, 0, 1))
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "Checklist")
	}
	return checklist, nil
}
