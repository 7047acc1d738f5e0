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

// MongoDocumentCollection implements DocumentCollection for MongoDB
type MongoDocumentCollection struct {
	Collection *mongo.Collection
}

// InsertDocument inserts a document and sets its ID and timestamps.
func (c *MongoDocumentCollection) InsertDocument(ctx context.Context, document *models.Document) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if document.ID.IsZero() {
		document.ID = primitive.NewObjectID()
	}
	document.CreatedAt = now
	document.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, document)
	return wrapWriteError(err)
}

// FindDocumentByID finds a document by its ID
func (c *MongoDocumentCollection) FindDocumentByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	var document models.Document
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&document); err != nil {
		return nil, wrapFindError(err)
	}
	return &document, nil
}

// FindDocuments lists documents by expiry date, soonest first.
func (c *MongoDocumentCollection) FindDocuments(ctx context.Context, query DocumentQuery) ([]models.Document, error) {
	filter := ownerScope(query.Owner)
	if query.Vehicle != nil {
		filter["vehicle"] = *query.Vehicle
	}
	if query.Type != "" {
		filter["type"] = query.Type
	}
	if len(query.Status) > 0 {
		filter["status"] = bson.M{"$in": query.Status}
	}
	documents := []models.Document{}
	opts := options.Find().SetSort(bson.D{{Key: "expiry_date", Value: 1}})
	if err := findAll(ctx, c.Collection, filter, &documents, opts); err != nil {
		return nil, err
	}
	return documents, nil
}

// ReplaceDocument stores every field of document.
func (c *MongoDocumentCollection) ReplaceDocument(ctx context.Context, document *models.Document) error {
	document.UpdatedAt = time.Now()
	return replaceByID(ctx, c.Collection, document.ID, document)
}

// UpdateDocumentStatus sets only the stored status of a document.
func (c *MongoDocumentCollection) UpdateDocumentStatus(ctx context.Context, id primitive.ObjectID, status models.DocumentStatus) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument deletes a document by its ID
func (c *MongoDocumentCollection) DeleteDocument(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, c.Collection, id)
}
