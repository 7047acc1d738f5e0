package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus is the operational state of a transit mixer.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "Active"
	VehicleMaintenance VehicleStatus = "Maintenance"
	VehicleInactive    VehicleStatus = "Inactive"
)

// IsValid reports whether s is a known vehicle status
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleActive, VehicleMaintenance, VehicleInactive:
		return true
	default:
		return false
	}
}

// Vehicle represents a fleet vehicle. AssignedDriver is the only stored side
// of the driver assignment.
type Vehicle struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	VehicleNumber     string              `bson:"vehicle_number" json:"vehicleNumber"`
	ChassisNumber     string              `bson:"chassis_number" json:"chassisNumber"`
	Model             string              `bson:"model" json:"model"`
	ManufacturingYear int                 `bson:"manufacturing_year" json:"manufacturingYear"`
	FuelType          string              `bson:"fuel_type" json:"fuelType"`
	DrumCapacity      float64             `bson:"drum_capacity" json:"drumCapacity"`
	RegistrationDate  time.Time           `bson:"registration_date" json:"registrationDate"`
	CurrentOdometer   float64             `bson:"current_odometer" json:"currentOdometer"`
	EngineHours       float64             `bson:"engine_hours" json:"engineHours"`
	AssignedDriver    *primitive.ObjectID `bson:"assigned_driver" json:"assignedDriver"`
	Status            VehicleStatus       `bson:"status" json:"status"`
	Owner             primitive.ObjectID  `bson:"owner" json:"owner"`
	CreatedAt         time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updatedAt"`

	// Driver is populated on reads, never stored.
	Driver *DriverRef `bson:"-" json:"driver,omitempty"`
}

// VehicleRef is the short vehicle view embedded in other records
type VehicleRef struct {
	ID            primitive.ObjectID `json:"_id"`
	VehicleNumber string             `json:"vehicleNumber"`
	Model         string             `json:"model"`
	Status        VehicleStatus      `json:"status"`
}

// Ref returns the short view of the vehicle
func (v *Vehicle) Ref() VehicleRef {
	return VehicleRef{ID: v.ID, VehicleNumber: v.VehicleNumber, Model: v.Model, Status: v.Status}
}

// VehicleRequest is the body of vehicle create and update calls. Nil fields are
// left unchanged on update.
type VehicleRequest struct {
	VehicleNumber     *string        `json:"vehicleNumber"`
	ChassisNumber     *string        `json:"chassisNumber"`
	Model             *string        `json:"model"`
	ManufacturingYear *int           `json:"manufacturingYear"`
	FuelType          *string        `json:"fuelType"`
	DrumCapacity      *float64       `json:"drumCapacity"`
	RegistrationDate  *time.Time     `json:"registrationDate"`
	CurrentOdometer   *float64       `json:"currentOdometer"`
	EngineHours       *float64       `json:"engineHours"`
	Status            *VehicleStatus `json:"status"`
	AssignedDriver    OptionalID     `json:"assignedDriver"`
}

// AssignDriverRequest is the body of PUT /vehicles/{id}/assign-driver
type AssignDriverRequest struct {
	DriverID OptionalID `json:"driverId"`
}

// VehicleDetails aggregates a vehicle with its recent activity
type VehicleDetails struct {
	Vehicle                 *Vehicle    `json:"vehicle"`
	Expenses                []Expense   `json:"expenses"`
	Documents               []Document  `json:"documents"`
	Checklists              []Checklist `json:"checklists"`
	TodayChecklistCompleted bool        `json:"todayChecklistCompleted"`
	TodayChecklist          *Checklist  `json:"todayChecklist"`
}
