package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayLayout formats the calendar day key of a checklist
const DayLayout = "2006-01-02"

// ChecklistItems are the six pre-trip inspection points of a transit mixer
type ChecklistItems struct {
	EngineOilLevel bool `bson:"engine_oil_level" json:"engineOilLevel"`
	BrakeCheck     bool `bson:"brake_check" json:"brakeCheck"`
	TyreCondition  bool `bson:"tyre_condition" json:"tyreCondition"`
	DrumRotation   bool `bson:"drum_rotation" json:"drumRotation"`
	WaterSystem    bool `bson:"water_system" json:"waterSystem"`
	LightsHorn     bool `bson:"lights_horn" json:"lightsHorn"`
}

// AllChecked reports whether every inspection item passed
func (i ChecklistItems) AllChecked() bool {
	return i.EngineOilLevel && i.BrakeCheck && i.TyreCondition &&
		i.DrumRotation && i.WaterSystem && i.LightsHorn
}

// Checklist is a driver's daily inspection of a vehicle. At most one exists per
// (Vehicle, Day).
type Checklist struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Vehicle            primitive.ObjectID `bson:"vehicle" json:"vehicle"`
	Driver             primitive.ObjectID `bson:"driver" json:"driver"`
	Date               time.Time          `bson:"date" json:"date"`
	Day                string             `bson:"day" json:"day"`
	Items              ChecklistItems     `bson:"items" json:"items"`
	OdometerReading    *float64           `bson:"odometer_reading,omitempty" json:"odometerReading,omitempty"`
	EngineHoursReading *float64           `bson:"engine_hours_reading,omitempty" json:"engineHoursReading,omitempty"`
	Remarks            string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
	AllChecked         bool               `bson:"all_checked" json:"allChecked"`
	SubmittedAt        time.Time          `bson:"submitted_at" json:"submittedAt"`
	Owner              primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updatedAt"`

	VehicleInfo *VehicleRef `bson:"-" json:"vehicleInfo,omitempty"`
	DriverInfo  *DriverRef  `bson:"-" json:"driverInfo,omitempty"`
}

// Derive recomputes the derived fields from the stored ones
func (c *Checklist) Derive() {
	c.AllChecked = c.Items.AllChecked()
}

// ChecklistRequest is the body of checklist create and update calls
type ChecklistRequest struct {
	Vehicle            OptionalID      `json:"vehicle"`
	Items              *ChecklistItems `json:"items"`
	OdometerReading    *float64        `json:"odometerReading"`
	EngineHoursReading *float64        `json:"engineHoursReading"`
	Remarks            *string         `json:"remarks"`
}

// ChecklistFilter narrows checklist lists
type ChecklistFilter struct {
	Vehicle *primitive.ObjectID
	Driver  *primitive.ObjectID
	Day     string
	Since   *time.Time
}

// StartOfDay returns local midnight of t's calendar day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey returns the calendar day key of t in t's location
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}
