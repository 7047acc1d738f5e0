package db

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNilCollection is returned when a collection wrapper was built without a collection.
	ErrNilCollection = errors.New("mongo collection is nil")
)

// DuplicateKeyError names the unique index a write collided with.
type DuplicateKeyError struct {
	Index string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s: %v", e.Index, e.Err)
}

// Is makes errors.Is(err, ErrDuplicateKey) hold.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// wrapWriteError converts driver duplicate key errors into *DuplicateKeyError.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{Index: indexNameFromError(err), Err: err}
	}
	return err
}

// wrapFindError maps mongo.ErrNoDocuments to ErrNotFound.
func wrapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func indexNameFromError(err error) string {
	msg := err.Error()
	for _, name := range uniqueIndexNames {
		if strings.Contains(msg, name) {
			return name
		}
	}
	return "unknown"
}
