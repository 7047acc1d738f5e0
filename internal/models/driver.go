package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverStatus is the employment state of a driver
type DriverStatus string

const (
	DriverActive   DriverStatus = "Active"
	DriverInactive DriverStatus = "Inactive"
)

// IsValid reports whether s is a known driver status
func (s DriverStatus) IsValid() bool {
	return s == DriverActive || s == DriverInactive
}

// DefaultDriverPassword is used for a driver login when the owner sets none.
const DefaultDriverPassword = "driver123"

// Driver represents a mixer driver. AssignedVehicles is a view derived from the
// vehicles pointing at this driver; it is filled on reads and never stored.
type Driver struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name                string             `bson:"name" json:"name"`
	Mobile              string             `bson:"mobile" json:"mobile"`
	LicenseNumber       string             `bson:"license_number" json:"licenseNumber"`
	LicenseExpiry       time.Time          `bson:"license_expiry" json:"licenseExpiry"`
	Status              DriverStatus       `bson:"status" json:"status"`
	ChecklistCompliance float64            `bson:"checklist_compliance" json:"checklistCompliance"`
	User                primitive.ObjectID `bson:"user" json:"user"`
	Owner               primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt           time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updatedAt"`

	AssignedVehicles []VehicleRef `bson:"-" json:"assignedVehicles"`
}

// AssignedVehicleIDs returns the ids of the derived vehicle view
func (d *Driver) AssignedVehicleIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(d.AssignedVehicles))
	for _, v := range d.AssignedVehicles {
		ids = append(ids, v.ID)
	}
	return ids
}

// HasVehicle reports whether id is in the driver's assigned vehicles
func (d *Driver) HasVehicle(id primitive.ObjectID) bool {
	for _, v := range d.AssignedVehicles {
		if v.ID == id {
			return true
		}
	}
	return false
}

// DriverRef is the short driver view embedded in other records
type DriverRef struct {
	ID            primitive.ObjectID `json:"_id"`
	Name          string             `json:"name"`
	Mobile        string             `json:"mobile"`
	LicenseNumber string             `json:"licenseNumber"`
}

// Ref returns the short view of the driver
func (d *Driver) Ref() DriverRef {
	return DriverRef{ID: d.ID, Name: d.Name, Mobile: d.Mobile, LicenseNumber: d.LicenseNumber}
}

// DriverRequest is the body of driver create and update calls
type DriverRequest struct {
	Name                *string       `json:"name"`
	Mobile              *string       `json:"mobile"`
	LicenseNumber       *string       `json:"licenseNumber"`
	LicenseExpiry       *time.Time    `json:"licenseExpiry"`
	Status              *DriverStatus `json:"status"`
	ChecklistCompliance *float64      `json:"checklistCompliance"`
	Password            string        `json:"password"`
}

// AssignVehicleRequest is the body of PUT /drivers/{id}/assign-vehicle
type AssignVehicleRequest struct {
	VehicleID string `json:"vehicleId"`
}
