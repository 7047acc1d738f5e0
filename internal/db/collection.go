package db

import (
	"context"
	"time"

	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names
const (
	UsersCollection      = "users"
	VehiclesCollection   = "vehicles"
	DriversCollection    = "drivers"
	ExpensesCollection   = "expenses"
	ChecklistsCollection = "checklists"
	DocumentsCollection  = "documents"
)

// VehicleFilter narrows vehicle lists. A nil Owner matches every owner.
type VehicleFilter struct {
	Owner          *primitive.ObjectID
	Status         models.VehicleStatus
	AssignedDriver *primitive.ObjectID
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicleByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	FindVehicles(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, error)
	// UpdateVehicle stores every field except the assigned driver.
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	// SetAssignedDriver points the vehicle at driverID, or clears it when nil.
	SetAssignedDriver(ctx context.Context, vehicleID primitive.ObjectID, driverID *primitive.ObjectID) error
	// ClearAssignedDriver unassigns driverID from every vehicle and returns how many changed.
	ClearAssignedDriver(ctx context.Context, driverID primitive.ObjectID) (int64, error)
	DeleteVehicle(ctx context.Context, id primitive.ObjectID) error
}

// DriverFilter narrows driver lists.
type DriverFilter struct {
	Owner  *primitive.ObjectID
	Status models.DriverStatus
}

// DriverCollection defines the interface for driver data operations.
type DriverCollection interface {
	InsertDriver(ctx context.Context, driver *models.Driver) error
	FindDriverByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error)
	FindDriverByUser(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error)
	FindDrivers(ctx context.Context, filter DriverFilter) ([]models.Driver, error)
	ReplaceDriver(ctx context.Context, driver *models.Driver) error
	DeleteDriver(ctx context.Context, id primitive.ObjectID) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
}

// ExpenseQuery narrows expense lists. A zero Limit means no limit.
type ExpenseQuery struct {
	Owner *primitive.ObjectID
	models.ExpenseFilter
	Limit int64
}

// ExpenseReview is the status transition applied by ReviewExpense.
type ExpenseReview struct {
	Status          models.ExpenseStatus
	ApprovedBy      *primitive.ObjectID
	ApprovedAt      *time.Time
	RejectionReason string
}

// ExpenseCollection defines the interface for expense data operations.
type ExpenseCollection interface {
	InsertExpense(ctx context.Context, expense *models.Expense) error
	FindExpenseByID(ctx context.Context, id primitive.ObjectID) (*models.Expense, error)
	FindExpenses(ctx context.Context, query ExpenseQuery) ([]models.Expense, error)
	// UpdateExpenseDetails stores the submitted fields of an expense, leaving
	// the review fields alone. With pendingOnly set it matches only a Pending
	// expense and returns ErrNotFound otherwise.
	UpdateExpenseDetails(ctx context.Context, expense *models.Expense, pendingOnly bool) error
	// ReviewExpense applies review to a Pending expense. It returns ErrNotFound
	// when no Pending expense with that id exists.
	ReviewExpense(ctx context.Context, id primitive.ObjectID, review ExpenseReview) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id primitive.ObjectID) error
	SummarizeExpenses(ctx context.Context, query ExpenseQuery) (*models.ExpenseSummary, error)
}

// ChecklistQuery narrows checklist lists.
type ChecklistQuery struct {
	Owner *primitive.ObjectID
	models.ChecklistFilter
}

// ChecklistCollection defines the interface for checklist data operations.
type ChecklistCollection interface {
	InsertChecklist(ctx context.Context, checklist *models.Checklist) error
	FindChecklistByID(ctx context.Context, id primitive.ObjectID) (*models.Checklist, error)
	// FindChecklistInWindow returns the checklist of vehicleID dated in [from, to).
	FindChecklistInWindow(ctx context.Context, vehicleID primitive.ObjectID, from, to time.Time) (*models.Checklist, error)
	FindChecklists(ctx context.Context, query ChecklistQuery) ([]models.Checklist, error)
	ReplaceChecklist(ctx context.Context, checklist *models.Checklist) error
	DeleteChecklist(ctx context.Context, id primitive.ObjectID) error
}

// DocumentQuery narrows document lists.
type DocumentQuery struct {
	Owner *primitive.ObjectID
	models.DocumentFilter
}

// DocumentCollection defines the interface for document data operations.
type DocumentCollection interface {
	InsertDocument(ctx context.Context, document *models.Document) error
	FindDocumentByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	FindDocuments(ctx context.Context, query DocumentQuery) ([]models.Document, error)
	ReplaceDocument(ctx context.Context, document *models.Document) error
	UpdateDocumentStatus(ctx context.Context, id primitive.ObjectID, status models.DocumentStatus) error
	DeleteDocument(ctx context.Context, id primitive.ObjectID) error
}

// Transactor runs a unit of work atomically when the deployment supports it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
