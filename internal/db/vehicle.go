package db

import (
	"context"
	"time"

	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle and sets its ID and timestamps.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return wrapWriteError(err)
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	var vehicle models.Vehicle
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle); err != nil {
		return nil, wrapFindError(err)
	}
	return &vehicle, nil
}

// FindVehicles lists vehicles, newest first.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, error) {
	query := ownerScope(filter.Owner)
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.AssignedDriver != nil {
		query["assigned_driver"] = *filter.AssignedDriver
	}
	vehicles := []models.Vehicle{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := findAll(ctx, c.Collection, query, &vehicles, opts); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateVehicle stores every field of vehicle except assigned_driver, which
// only SetAssignedDriver and ClearAssignedDriver change.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	vehicle.UpdatedAt = time.Now()
	set := bson.M{
		"vehicle_number":     vehicle.VehicleNumber,
		"chassis_number":     vehicle.ChassisNumber,
		"model":              vehicle.Model,
		"manufacturing_year": vehicle.ManufacturingYear,
		"fuel_type":          vehicle.FuelType,
		"drum_capacity":      vehicle.DrumCapacity,
		"registration_date":  vehicle.RegistrationDate,
		"current_odometer":   vehicle.CurrentOdometer,
		"engine_hours":       vehicle.EngineHours,
		"status":             vehicle.Status,
		"updated_at":         vehicle.UpdatedAt,
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": vehicle.ID}, bson.M{"$set": set})
	if err != nil {
		return wrapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAssignedDriver updates only the driver pointer of a vehicle.
func (c *MongoVehicleCollection) SetAssignedDriver(ctx context.Context, vehicleID primitive.ObjectID, driverID *primitive.ObjectID) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": vehicleID},
		bson.M{"$set": bson.M{"assigned_driver": driverID, "updated_at": time.Now()}},
	)
	if err != nil {
		return wrapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAssignedDriver unassigns driverID from every vehicle pointing at it.
func (c *MongoVehicleCollection) ClearAssignedDriver(ctx context.Context, driverID primitive.ObjectID) (int64, error) {
	if c.Collection == nil {
		return 0, ErrNilCollection
	}
	result, err := c.Collection.UpdateMany(ctx,
		bson.M{"assigned_driver": driverID},
		bson.M{"$set": bson.M{"assigned_driver": nil, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, c.Collection, id)
}
