package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseType categorizes an expense
type ExpenseType string

const (
	ExpenseFuel        ExpenseType = "Fuel"
	ExpenseMaintenance ExpenseType = "Maintenance"
	ExpenseToll        ExpenseType = "Toll"
	ExpenseSpareParts  ExpenseType = "Spare Parts"
	ExpenseOther       ExpenseType = "Other"
)

// IsValid reports whether t is a known expense type
func (t ExpenseType) IsValid() bool {
	switch t {
	case ExpenseFuel, ExpenseMaintenance, ExpenseToll, ExpenseSpareParts, ExpenseOther:
		return true
	default:
		return false
	}
}

// ExpenseStatus is the review state of an expense. Pending is the only
// non-terminal state.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "Pending"
	ExpenseApproved ExpenseStatus = "Approved"
	ExpenseRejected ExpenseStatus = "Rejected"
)

// IsValid reports whether s is a known expense status
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpensePending, ExpenseApproved, ExpenseRejected:
		return true
	default:
		return false
	}
}

// Attachment is an uploaded file stored inline as base64.
type Attachment struct {
	Name        string `bson:"name" json:"name"`
	ContentType string `bson:"content_type" json:"contentType"`
	Data        string `bson:"data" json:"-"`
}

// Expense is a cost submitted by a driver against a vehicle
type Expense struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Vehicle         primitive.ObjectID  `bson:"vehicle" json:"vehicle"`
	Driver          primitive.ObjectID  `bson:"driver" json:"driver"`
	Type            ExpenseType         `bson:"type" json:"type"`
	Amount          float64             `bson:"amount" json:"amount"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	BillPhoto       *Attachment         `bson:"bill_photo,omitempty" json:"billPhoto,omitempty"`
	Date            time.Time           `bson:"date" json:"date"`
	Location        *Location           `bson:"location,omitempty" json:"location,omitempty"`
	Status          ExpenseStatus       `bson:"status" json:"status"`
	ApprovedBy      *primitive.ObjectID `bson:"approved_by,omitempty" json:"approvedBy"`
	ApprovedAt      *time.Time          `bson:"approved_at,omitempty" json:"approvedAt"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
	Owner           primitive.ObjectID  `bson:"owner" json:"owner"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`

	VehicleInfo *VehicleRef `bson:"-" json:"vehicleInfo,omitempty"`
	DriverInfo  *DriverRef  `bson:"-" json:"driverInfo,omitempty"`
}

// ExpenseRequest is the body of expense create and update calls. There is no
// status field: only approve and reject change it.
type ExpenseRequest struct {
	Vehicle     OptionalID   `json:"vehicle"`
	Driver      OptionalID   `json:"driver"`
	Type        *ExpenseType `json:"type"`
	Amount      *float64     `json:"amount"`
	Description *string      `json:"description"`
	Date        *time.Time   `json:"date"`
	Location    *Location    `json:"location"`
	BillPhoto   *Attachment  `json:"-"`
}

// RejectRequest is the body of PUT /expenses/{id}/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ExpenseFilter narrows expense lists
type ExpenseFilter struct {
	Vehicle *primitive.ObjectID
	Driver  *primitive.ObjectID
	Status  ExpenseStatus
	Type    ExpenseType
}

// ExpenseSummary aggregates expenses for the dashboard
type ExpenseSummary struct {
	TotalApproved float64                 `json:"totalApproved"`
	PendingAmount float64                 `json:"pendingAmount"`
	PendingCount  int                     `json:"pendingCount"`
	ByType        map[ExpenseType]float64 `json:"byType"`
}
