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

// MongoExpenseCollection implements ExpenseCollection for MongoDB
type MongoExpenseCollection struct {
	Collection *mongo.Collection
}

// InsertExpense inserts an expense and sets its ID and timestamps.
func (c *MongoExpenseCollection) InsertExpense(ctx context.Context, expense *models.Expense) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	now := time.Now()
	if expense.ID.IsZero() {
		expense.ID = primitive.NewObjectID()
	}
	expense.CreatedAt = now
	expense.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, expense)
	return wrapWriteError(err)
}

// FindExpenseByID finds an expense by its ID
func (c *MongoExpenseCollection) FindExpenseByID(ctx context.Context, id primitive.ObjectID) (*models.Expense, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	var expense models.Expense
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&expense); err != nil {
		return nil, wrapFindError(err)
	}
	return &expense, nil
}

func expenseFilter(query ExpenseQuery) bson.M {
	filter := ownerScope(query.Owner)
	if query.Vehicle != nil {
		filter["vehicle"] = *query.Vehicle
	}
	if query.Driver != nil {
		filter["driver"] = *query.Driver
	}
	if query.Status != "" {
		filter["status"] = query.Status
	}
	if query.Type != "" {
		filter["type"] = query.Type
	}
	return filter
}

// FindExpenses lists expenses by date, newest first.
func (c *MongoExpenseCollection) FindExpenses(ctx context.Context, query ExpenseQuery) ([]models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
	}
	expenses := []models.Expense{}
	if err := findAll(ctx, c.Collection, expenseFilter(query), &expenses, opts); err != nil {
		return nil, err
	}
	return expenses, nil
}

// UpdateExpenseDetails stores the submitted fields of expense.
func (c *MongoExpenseCollection) UpdateExpenseDetails(ctx context.Context, expense *models.Expense, pendingOnly bool) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	expense.UpdatedAt = time.Now()
	filter := bson.M{"_id": expense.ID}
	if pendingOnly {
		filter["status"] = models.ExpensePending
	}
	update := bson.M{"$set": bson.M{
		"type":        expense.Type,
		"amount":      expense.Amount,
		"description": expense.Description,
		"date":        expense.Date,
		"location":    expense.Location,
		"bill_photo":  expense.BillPhoto,
		"updated_at":  expense.UpdatedAt,
	}}
	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReviewExpense moves a Pending expense to its final status in one conditional
// write, so two concurrent reviews cannot both succeed.
func (c *MongoExpenseCollection) ReviewExpense(ctx context.Context, id primitive.ObjectID, review ExpenseReview) (*models.Expense, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	set := bson.M{
		"status":     review.Status,
		"updated_at": time.Now(),
	}
	if review.ApprovedBy != nil {
		set["approved_by"] = *review.ApprovedBy
	}
	if review.ApprovedAt != nil {
		set["approved_at"] = *review.ApprovedAt
	}
	if review.RejectionReason != "" {
		set["rejection_reason"] = review.RejectionReason
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var expense models.Expense
	err := c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ExpensePending},
		bson.M{"$set": set},
		opts,
	).Decode(&expense)
	if err != nil {
		return nil, wrapFindError(err)
	}
	return &expense, nil
}

// DeleteExpense deletes an expense by its ID
func (c *MongoExpenseCollection) DeleteExpense(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, c.Collection, id)
}

type expenseTotal struct {
	Status models.ExpenseStatus `bson:"status"`
	Type   models.ExpenseType   `bson:"type"`
	Total  float64              `bson:"total"`
	Count  int                  `bson:"count"`
}

// SummarizeExpenses totals the matching expenses by status and type.
func (c *MongoExpenseCollection) SummarizeExpenses(ctx context.Context, query ExpenseQuery) (*models.ExpenseSummary, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: expenseFilter(query)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"status": "$status", "type": "$type"},
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":    0,
			"status": "$_id.status",
			"type":   "$_id.type",
			"total":  1,
			"count":  1,
		}}},
	}
	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var totals []expenseTotal
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, err
	}
	return summarize(totals), nil
}

func summarize(totals []expenseTotal) *models.ExpenseSummary {
	summary := &models.ExpenseSummary{ByType: map[models.ExpenseType]float64{}}
	for _, t := range totals {
		switch t.Status {
		case models.ExpenseApproved:
			summary.TotalApproved += t.Total
			summary.ByType[t.Type] += t.Total
		case models.ExpensePending:
			summary.PendingAmount += t.Total
			summary.PendingCount += t.Count
		}
	}
	return summary
}
