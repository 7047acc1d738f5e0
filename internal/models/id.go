package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OptionalID is a reference field in a request body that distinguishes
// "absent" (Set false) from "cleared" (Set true, ID nil). Empty strings and
// JSON null both clear.
type OptionalID struct {
	Set bool
	ID  *primitive.ObjectID
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.ID = nil
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id must be a string: %w", err)
	}
	id, err := ParseOptionalID(s)
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

// ParseOptionalID parses a hex object id, treating "" as no id.
func ParseOptionalID(s string) (*primitive.ObjectID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", s)
	}
	return &id, nil
}
