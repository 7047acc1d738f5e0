package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Unique index names, matched against duplicate key error messages.
const (
	IndexVehicleNumber  = "vehicle_number_unique"
	IndexChassisNumber  = "chassis_number_unique"
	IndexAssignedDriver = "assigned_driver_unique"
	IndexDriverMobile   = "driver_mobile_unique"
	IndexDriverLicense  = "driver_license_unique"
	IndexUserEmail      = "user_email_unique"
	IndexUserMobile     = "user_mobile_unique"
	IndexChecklistDay   = "checklist_vehicle_day_unique"
)

var uniqueIndexNames = []string{
	IndexVehicleNumber,
	IndexChassisNumber,
	IndexAssignedDriver,
	IndexDriverMobile,
	IndexDriverLicense,
	IndexUserEmail,
	IndexUserMobile,
	IndexChecklistDay,
}

func uniqueIndex(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

// indexSpecs lists the indexes per collection.
func indexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		VehiclesCollection: {
			uniqueIndex(IndexVehicleNumber, bson.D{{Key: "vehicle_number", Value: 1}}),
			uniqueIndex(IndexChassisNumber, bson.D{{Key: "chassis_number", Value: 1}}),
			// At most one vehicle per driver; unassigned vehicles hold null and are skipped.
			{
				Keys: bson.D{{Key: "assigned_driver", Value: 1}},
				Options: options.Index().SetName(IndexAssignedDriver).SetUnique(true).
					SetPartialFilterExpression(bson.M{"assigned_driver": bson.M{"$type": "objectId"}}),
			},
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		DriversCollection: {
			uniqueIndex(IndexDriverMobile, bson.D{{Key: "mobile", Value: 1}}),
			uniqueIndex(IndexDriverLicense, bson.D{{Key: "license_number", Value: 1}}),
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(IndexUserEmail).SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: options.Index().SetName(IndexUserMobile).SetUnique(true).SetSparse(true)},
		},
		ChecklistsCollection: {
			uniqueIndex(IndexChecklistDay, bson.D{{Key: "vehicle", Value: 1}, {Key: "day", Value: 1}}),
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "date", Value: -1}}},
		},
		ExpensesCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "driver", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		DocumentsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "expiry_date", Value: 1}}},
			{Keys: bson.D{{Key: "vehicle", Value: 1}}},
		},
	}
}

// EnsureIndexes creates every index the store relies on. Creating an existing
// index is a no-op.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for collection, models := range indexSpecs() {
		names, err := database.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
		log.WithFields(log.Fields{"collection": collection, "indexes": names}).Debug("indexes ensured")
	}
	return nil
}
