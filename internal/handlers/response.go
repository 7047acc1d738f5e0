package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// envelope is the body of every JSON response.
type envelope map[string]interface{}

// requestError is a client error detected before the service is called.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) error {
	return &requestError{status: http.StatusBadRequest, message: message}
}

func unauthorized(message string) error {
	return &requestError{status: http.StatusUnauthorized, message: message}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

// respond writes {success: true, data}.
func respond(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{"success": true, "data": data})
}

// respondList writes {success: true, count, data}.
func respondList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "count": len(items), "data": items})
}

// respondDeleted writes the empty data object returned by deletes.
func respondDeleted(w http.ResponseWriter) {
	respond(w, http.StatusOK, struct{}{})
}

// writeError maps err to a status and the error envelope. Unexpected errors
// are logged and reported as "Server Error".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := envelope{"success": false, "message": err.Error()}

	var (
		reqErr    *requestError
		conflict  *fleet.ConflictError
		completed *fleet.AlreadyCompletedError
		invalid   *fleet.ValidationError
	)
	status := http.StatusBadRequest
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.status
	case errors.As(err, &conflict):
		body["conflictVehicle"] = conflict.ConflictVehicle
	case errors.As(err, &completed):
		body["alreadyCompleted"] = true
		body["existingChecklist"] = completed.Existing
	case errors.Is(err, fleet.ErrNoVehicle):
		body["noVehicle"] = true
	case errors.As(err, &invalid):
		body["field"] = invalid.Field
	case errors.Is(err, fleet.ErrDuplicate),
		errors.Is(err, fleet.ErrExpenseFinalized),
		errors.Is(err, fleet.ErrInvalidID):
	case errors.Is(err, fleet.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, fleet.ErrNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		body["message"] = "Server Error"
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).WithError(err).Error("request failed")
	}
	writeJSON(w, status, body)
}

// decodeJSON decodes the request body into v. An empty body leaves v unchanged.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("Invalid request body: " + err.Error())
	}
	return nil
}

// identity returns the authenticated caller, or writes 401.
func identity(w http.ResponseWriter, r *http.Request) (fleet.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "message": "Not authorized to access this route"})
	}
	return id, ok
}

// parseID parses a hex object id from a path or query value.
func parseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fleet.ErrInvalidID
	}
	return id, nil
}

// optionalQueryID parses an optional id from the query string.
func optionalQueryID(r *http.Request, key string) (*primitive.ObjectID, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	id, err := parseID(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
