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

// MongoChecklistCollection implements ChecklistCollection for MongoDB
type MongoChecklistCollection struct {
	Collection *mongo.Collection
}

// InsertChecklist inserts a checklist. A second checklist for the same vehicle
// and day fails with a DuplicateKeyError on IndexChecklistDay.
func (c *MongoChecklistCollection) InsertChecklist(ctx context.Context, checklist *models.Checklist) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if checklist.ID.IsZero() {
		checklist.ID = primitive.NewObjectID()
	}
	checklist.CreatedAt = now
	checklist.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, checklist)
	return wrapWriteError(err)
}

// FindChecklistByID finds a checklist by its ID
func (c *MongoChecklistCollection) FindChecklistByID(ctx context.Context, id primitive.ObjectID) (*models.Checklist, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// FindChecklistInWindow returns the checklist of vehicleID dated in [from, to).
func (c *MongoChecklistCollection) FindChecklistInWindow(ctx context.Context, vehicleID primitive.ObjectID, from, to time.Time) (*models.Checklist, error) {
	return c.findOne(ctx, bson.M{
		"vehicle": vehicleID,
		"date":    bson.M{"$gte": from, "$lt": to},
	})
}

func (c *MongoChecklistCollection) findOne(ctx context.Context, filter bson.M) (*models.Checklist, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	var checklist models.Checklist
	if err := c.Collection.FindOne(ctx, filter).Decode(&checklist); err != nil {
		return nil, wrapFindError(err)
	}
	return &checklist, nil
}

// FindChecklists lists checklists by date, newest first.
func (c *MongoChecklistCollection) FindChecklists(ctx context.Context, query ChecklistQuery) ([]models.Checklist, error) {
	filter := ownerScope(query.Owner)
	if query.Vehicle != nil {
		filter["vehicle"] = *query.Vehicle
	}
	if query.Driver != nil {
		filter["driver"] = *query.Driver
	}
	if query.Day != "" {
		filter["day"] = query.Day
	}
	if query.Since != nil {
		filter["date"] = bson.M{"$gte": *query.Since}
	}
	checklists := []models.Checklist{}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if err := findAll(ctx, c.Collection, filter, &checklists, opts); err != nil {
		return nil, err
	}
	return checklists, nil
}

// ReplaceChecklist stores every field of checklist.
func (c *MongoChecklistCollection) ReplaceChecklist(ctx context.Context, checklist *models.Checklist) error {
	checklist.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, checklist.ID, checklist)
}

// DeleteChecklist deletes a checklist by its ID
func (c *MongoChecklistCollection) DeleteChecklist(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, c.Collection, id)
}
