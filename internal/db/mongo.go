package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/rmc-fleet/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store bundles the collections of one database.
type Store struct {
	Users      *MongoUserCollection
	Vehicles   *MongoVehicleCollection
	Drivers    *MongoDriverCollection
	Expenses   *MongoExpenseCollection
	Checklists *MongoChecklistCollection
	Documents  *MongoDocumentCollection
	Tx         *MongoTransactor
}

// NewStore wires every collection of database. Transactions are only used
// when transactions is true, which requires a replica set.
func NewStore(client *mongo.Client, database *mongo.Database, transactions bool) *Store {
	return &Store{
		Users:      &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		Vehicles:   &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		Drivers:    &MongoDriverCollection{Collection: database.Collection(DriversCollection)},
		Expenses:   &MongoExpenseCollection{Collection: database.Collection(ExpensesCollection)},
		Checklists: &MongoChecklistCollection{Collection: database.Collection(ChecklistsCollection)},
		Documents:  &MongoDocumentCollection{Collection: database.Collection(DocumentsCollection)},
		Tx:         &MongoTransactor{Client: client, Enabled: transactions},
	}
}

// MongoTransactor implements Transactor with client sessions.
type MongoTransactor struct {
	Client  *mongo.Client
	Enabled bool
}

// WithTransaction runs fn in a session transaction, or directly when
// transactions are disabled.
func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.Enabled || t.Client == nil {
		return fn(ctx)
	}
	session, err := t.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// ownerScope returns a filter with the owner set when owner is non-nil.
func ownerScope(owner *primitive.ObjectID) bson.M {
	filter := bson.M{}
	if owner != nil {
		filter["owner"] = *owner
	}
	return filter
}

// findAll runs a find and decodes every result into out.
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	if coll == nil {
		return ErrNilCollection
	}
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// deleteByID deletes one record and reports ErrNotFound when nothing matched.
func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	if coll == nil {
		return ErrNilCollection
	}
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// replaceByID replaces one record and reports ErrNotFound when nothing matched.
func replaceByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc interface{}) error {
	if coll == nil {
		return ErrNilCollection
	}
	result, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return wrapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
