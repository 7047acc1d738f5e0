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

// MongoDriverCollection implements DriverCollection for MongoDB
type MongoDriverCollection struct {
	Collection *mongo.Collection
}

// InsertDriver inserts a driver and sets its ID and timestamps.
func (c *MongoDriverCollection) InsertDriver(ctx context.Context, driver *models.Driver) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	driver.CreatedAt = now
	driver.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, driver)
	return wrapWriteError(err)
}

// FindDriverByID finds a driver by its ID
func (c *MongoDriverCollection) FindDriverByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// FindDriverByUser finds the driver record of a login user
func (c *MongoDriverCollection) FindDriverByUser(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	return c.findOne(ctx, bson.M{"user": userID})
}

func (c *MongoDriverCollection) findOne(ctx context.Context, filter bson.M) (*models.Driver, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	var driver models.Driver
	if err := c.Collection.FindOne(ctx, filter).Decode(&driver); err != nil {
		return nil, wrapFindError(err)
	}
	return &driver, nil
}

// FindDrivers lists drivers, newest first.
func (c *MongoDriverCollection) FindDrivers(ctx context.Context, filter DriverFilter) ([]models.Driver, error) {
	query := ownerScope(filter.Owner)
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	drivers := []models.Driver{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := findAll(ctx, c.Collection, query, &drivers, opts); err != nil {
		return nil, err
	}
	return drivers, nil
}

// ReplaceDriver stores every field of driver.
func (c *MongoDriverCollection) ReplaceDriver(ctx context.Context, driver *models.Driver) error {
	driver.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, driver.ID, driver)
}

// DeleteDriver deletes a driver by its ID
func (c *MongoDriverCollection) DeleteDriver(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, c.Collection, id)
}
