package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleService is the part of the fleet service behind /vehicles.
type VehicleService interface {
	CreateVehicle(ctx context.Context, owner primitive.ObjectID, req models.VehicleRequest) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, owner, id primitive.ObjectID, req models.VehicleRequest) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, identity fleet.Identity, status models.VehicleStatus) ([]models.Vehicle, error)
	GetVehicle(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Vehicle, error)
	VehicleDetails(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.VehicleDetails, error)
	DeleteVehicle(ctx context.Context, owner, id primitive.ObjectID) error
	AssignDriverToVehicle(ctx context.Context, owner, vehicleID primitive.ObjectID, driverID *primitive.ObjectID) (*models.Vehicle, error)
}

// VehicleHandler serves /vehicles.
type VehicleHandler struct {
	service VehicleService
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(service VehicleService) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// List handles GET /vehicles. Drivers see only their assigned vehicles.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	status := models.VehicleStatus(r.URL.Query().Get("status"))
	vehicles, err := h.service.ListVehicles(r.Context(), id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, vehicles)
}

// Get handles GET /vehicles/{id}
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vehicleID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	vehicle, err := h.service.GetVehicle(r.Context(), id, vehicleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, vehicle)
}

// Details handles GET /vehicles/{id}/details
func (h *VehicleHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vehicleID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	details, err := h.service.VehicleDetails(r.Context(), id, vehicleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, details)
}

// Create handles POST /vehicles
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req models.VehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vehicle, err := h.service.CreateVehicle(r.Context(), id.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, vehicle)
}

// Update handles PUT /vehicles/{id}. Only the fields present in the body change.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vehicleID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.VehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vehicle, err := h.service.UpdateVehicle(r.Context(), id.UserID, vehicleID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, vehicle)
}

// Delete handles DELETE /vehicles/{id}
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vehicleID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteVehicle(r.Context(), id.UserID, vehicleID); err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w)
}

// AssignDriver handles PUT /vehicles/{id}/assign-driver. A null or empty
// driverId unassigns the vehicle.
func (h *VehicleHandler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vehicleID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.AssignDriverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vehicle, err := h.service.AssignDriverToVehicle(r.Context(), id.UserID, vehicleID, req.DriverID.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, vehicle)
}
