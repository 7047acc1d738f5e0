package fleet

import (
	"errors"
	"fmt"

	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the identity does not own the record or
	// lacks the role for the action.
	ErrForbidden = errors.New("not authorized to access this resource")

	// ErrNoVehicle matches every *NoVehicleError.
	ErrNoVehicle = errors.New("no vehicle assigned")

	// ErrExpenseFinalized is returned when an expense is no longer Pending.
	ErrExpenseFinalized = errors.New("expense has already been reviewed")

	// ErrInvalidID is returned for a malformed object id.
	ErrInvalidID = errors.New("invalid id")

	// ErrDuplicate matches every *DuplicateError.
	ErrDuplicate = errors.New("duplicate value")

	// ErrAlreadyCompleted matches every *AlreadyCompletedError.
	ErrAlreadyCompleted = errors.New("checklist already completed")

	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("driver already assigned")
)

// NotFoundError reports a missing record.
type NotFoundError struct {
	Message string
}

func notFound(entity string) *NotFoundError {
	return &NotFoundError{Message: entity + " not found"}
}

func (e *NotFoundError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

// DuplicateError reports a write that collided with a unique field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return fmt.Sprintf("%s already exists", e.Field) }

// Is makes errors.Is(err, ErrDuplicate) hold.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// ConflictError reports a driver that already holds another vehicle.
type ConflictError struct {
	DriverID        primitive.ObjectID
	ConflictVehicle string
}

func (e *ConflictError) Error() string {
	if e.ConflictVehicle == "" {
		return "This driver is already assigned to another vehicle. A driver can only be assigned to one vehicle at a time."
	}
	return fmt.Sprintf("This driver is already assigned to vehicle %s. A driver can only be assigned to one vehicle at a time.", e.ConflictVehicle)
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// AlreadyCompletedError carries the checklist that already covers today.
type AlreadyCompletedError struct {
	Existing *models.Checklist
}

func (e *AlreadyCompletedError) Error() string {
	return "Checklist already completed for today. You can submit again tomorrow."
}

// Is makes errors.Is(err, ErrAlreadyCompleted) hold.
func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

// NoVehicleError is returned when a driver submits without an assigned vehicle.
type NoVehicleError struct {
	Submission string
}

func (e *NoVehicleError) Error() string {
	return fmt.Sprintf("You do not have an assigned vehicle. Please contact your fleet manager to assign a vehicle before submitting %s.", e.Submission)
}

// Is makes errors.Is(err, ErrNoVehicle) hold.
func (e *NoVehicleError) Is(target error) bool { return target == ErrNoVehicle }

// duplicateFields names the request field behind each unique index.
var duplicateFields = map[string]string{
	db.IndexVehicleNumber: "Vehicle number",
	db.IndexChassisNumber: "Chassis number",
	db.IndexDriverMobile:  "Mobile number",
	db.IndexDriverLicense: "License number",
	db.IndexUserEmail:     "Email",
	db.IndexUserMobile:    "Mobile number",
}

// storeErr translates store errors about entity into service errors.
func storeErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return notFound(entity)
	}
	var dup *db.DuplicateKeyError
	if errors.As(err, &dup) {
		if field, ok := duplicateFields[dup.Index]; ok {
			return &DuplicateError{Field: field}
		}
		return &DuplicateError{Field: entity}
	}
	return fmt.Errorf("%s store: %w", entity, err)
}
