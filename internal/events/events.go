package events

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Type names a fleet event. It is the last segment of the MQTT topic.
type Type string

const (
	ExpenseSubmitted   Type = "expense.submitted"
	ExpenseApproved    Type = "expense.approved"
	ExpenseRejected    Type = "expense.rejected"
	ChecklistSubmitted Type = "checklist.submitted"
	DriverAssigned     Type = "driver.assigned"
	DocumentExpiring   Type = "document.expiring"
)

// Event is a notification about a change to a record of one owner.
type Event struct {
	Type    Type               `json:"type"`
	Owner   primitive.ObjectID `json:"owner"`
	Subject primitive.ObjectID `json:"subject"`
	Data    interface{}        `json:"data,omitempty"`
	At      time.Time          `json:"at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, Event) error { return nil }
