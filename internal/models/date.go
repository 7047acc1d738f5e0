package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseTime accepts an RFC 3339 timestamp or a bare "2006-01-02" date, which
// is read as local midnight.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// FlexTime is a time.Time that decodes with ParseTime
type FlexTime time.Time

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	*f = FlexTime(t)
	return nil
}

// Ptr returns the time, or nil when f is nil
func (f *FlexTime) Ptr() *time.Time {
	if f == nil {
		return nil
	}
	t := time.Time(*f)
	return &t
}

// UnmarshalJSON implements json.Unmarshaler
func (r *VehicleRequest) UnmarshalJSON(data []byte) error {
	type plain VehicleRequest
	aux := struct {
		*plain
		RegistrationDate *FlexTime `json:"registrationDate"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.RegistrationDate = aux.RegistrationDate.Ptr()
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (r *DriverRequest) UnmarshalJSON(data []byte) error {
	type plain DriverRequest
	aux := struct {
		*plain
		LicenseExpiry *FlexTime `json:"licenseExpiry"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.LicenseExpiry = aux.LicenseExpiry.Ptr()
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (r *ExpenseRequest) UnmarshalJSON(data []byte) error {
	type plain ExpenseRequest
	aux := struct {
		*plain
		Date *FlexTime `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Date = aux.Date.Ptr()
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (r *DocumentRequest) UnmarshalJSON(data []byte) error {
	type plain DocumentRequest
	aux := struct {
		*plain
		ExpiryDate *FlexTime `json:"expiryDate"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ExpiryDate = aux.ExpiryDate.Ptr()
	return nil
}
