package models

// Location is where an expense was incurred, as reported by the driver's device.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}
