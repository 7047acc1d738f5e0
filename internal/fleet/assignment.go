package fleet

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The vehicle's assigned_driver is the only stored side of an assignment. A
// driver's AssignedVehicles is derived from it on every read, and a partial
// unique index on assigned_driver keeps a driver on at most one vehicle.

// checkDriverFree returns a *ConflictError when a vehicle other than except
// holds driverID.
func (s *Service) checkDriverFree(ctx context.Context, driverID primitive.ObjectID, except *primitive.ObjectID) error {
	holders, err := s.vehicles.FindVehicles(ctx, db.VehicleFilter{AssignedDriver: &driverID})
	if err != nil {
		return storeErr(err, "Vehicle")
	}
	for _, holder := range holders {
		if except == nil || holder.ID != *except {
			return &ConflictError{DriverID: driverID, ConflictVehicle: holder.VehicleNumber}
		}
	}
	return nil
}

// assignmentErr converts a write that lost the race on the assigned driver
// index into the ConflictError naming the winning vehicle.
func (s *Service) assignmentErr(ctx context.Context, err error, driverID, vehicleID primitive.ObjectID) error {
	var dup *db.DuplicateKeyError
	if !errors.As(err, &dup) || dup.Index != db.IndexAssignedDriver {
		return storeErr(err, "Vehicle")
	}
	if conflict := s.checkDriverFree(ctx, driverID, &vehicleID); conflict != nil {
		return conflict
	}
	return &ConflictError{DriverID: driverID}
}

// AssignDriverToVehicle points vehicleID at driverID, or unassigns it when
// driverID is nil. It fails with a *ConflictError, changing nothing, when the
// driver already holds another vehicle. Repeating a call is a no-op.
func (s *Service) AssignDriverToVehicle(ctx context.Context, owner, vehicleID primitive.ObjectID, driverID *primitive.ObjectID) (*models.Vehicle, error) {
	vehicle, err := s.ownedVehicle(ctx, owner, vehicleID)
	if err != nil {
		return nil, err
	}

	var driver *models.Driver
	if driverID != nil {
		if driver, err = s.ownedDriver(ctx, owner, *driverID); err != nil {
			return nil, err
		}
		if err := s.checkDriverFree(ctx, *driverID, &vehicleID); err != nil {
			return nil, err
		}
	}

	if err := s.vehicles.SetAssignedDriver(ctx, vehicleID, driverID); err != nil {
		if driverID != nil {
			return nil, s.assignmentErr(ctx, err, *driverID, vehicleID)
		}
		return nil, storeErr(err, "Vehicle")
	}

	changed := !sameID(vehicle.AssignedDriver, driverID)
	vehicle.AssignedDriver = driverID
	vehicle.Driver = nil
	if driver != nil {
		ref := driver.Ref()
		vehicle.Driver = &ref
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicleID.Hex(),
		"driver_id":  idHex(driverID),
		"changed":    changed,
	}).Info("driver assignment updated")
	if changed && driverID != nil {
		s.publish(ctx, events.DriverAssigned, owner, vehicleID, vehicle.Ref())
	}
	return vehicle, nil
}

// AssignVehicleToDriver moves driverID onto vehicleID. Any vehicle the driver
// held before is released in the same transaction, and the vehicle's previous
// driver loses it.
func (s *Service) AssignVehicleToDriver(ctx context.Context, owner, driverID, vehicleID primitive.ObjectID) (*models.Driver, error) {
	driver, err := s.ownedDriver(ctx, owner, driverID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.ownedVehicle(ctx, owner, vehicleID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		held, err := s.vehicles.FindVehicles(ctx, db.VehicleFilter{AssignedDriver: &driverID})
		if err != nil {
			return err
		}
		for _, v := range held {
			if v.ID == vehicleID {
				continue
			}
			if err := s.vehicles.SetAssignedDriver(ctx, v.ID, nil); err != nil {
				return err
			}
		}
		return s.vehicles.SetAssignedDriver(ctx, vehicleID, &driverID)
	})
	if err != nil {
		return nil, s.assignmentErr(ctx, err, driverID, vehicleID)
	}

	if err := s.attachVehicles(ctx, driver); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"vehicle_id": vehicleID.Hex(),
		"driver_id":  driverID.Hex(),
	}).Info("vehicle assigned to driver")
	if !sameID(vehicle.AssignedDriver, &driverID) {
		s.publish(ctx, events.DriverAssigned, owner, vehicleID, vehicle.Ref())
	}
	return driver, nil
}

// DeleteDriver unassigns the driver from every vehicle, then deletes its
// login user and the driver record, in one transaction.
func (s *Service) DeleteDriver(ctx context.Context, owner, driverID primitive.ObjectID) error {
	driver, err := s.ownedDriver(ctx, owner, driverID)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cleared, err := s.vehicles.ClearAssignedDriver(ctx, driverID)
		if err != nil {
			return err
		}
		if !driver.User.IsZero() {
			if err := s.users.DeleteUser(ctx, driver.User); err != nil && !errors.Is(err, db.ErrNotFound) {
				return err
			}
		}
		if err := s.drivers.DeleteDriver(ctx, driverID); err != nil {
			return err
		}
		log.WithFields(log.Fields{"driver_id": driverID.Hex(), "vehicles_cleared": cleared}).Info("driver deleted")
		return nil
	})
	return storeErr(err, "Driver")
}

// DeleteVehicle deletes an owned vehicle. The driver side of its assignment is
// derived, so nothing else needs updating.
func (s *Service) DeleteVehicle(ctx context.Context, owner, vehicleID primitive.ObjectID) error {
	if _, err := s.ownedVehicle(ctx, owner, vehicleID); err != nil {
		return err
	}
	if err := s.vehicles.DeleteVehicle(ctx, vehicleID); err != nil {
		return storeErr(err, "Vehicle")
	}
	log.WithField("vehicle_id", vehicleID.Hex()).Info("vehicle deleted")
	return nil
}

func sameID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func idHex(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
