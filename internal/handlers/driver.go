package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverService is the part of the fleet service behind /drivers.
type DriverService interface {
	CreateDriver(ctx context.Context, owner primitive.ObjectID, req models.DriverRequest) (*models.Driver, error)
	UpdateDriver(ctx context.Context, owner, id primitive.ObjectID, req models.DriverRequest) (*models.Driver, error)
	GetDriver(ctx context.Context, owner, id primitive.ObjectID) (*models.Driver, error)
	ListDrivers(ctx context.Context, owner primitive.ObjectID, status models.DriverStatus) ([]models.Driver, error)
	DeleteDriver(ctx context.Context, owner, id primitive.ObjectID) error
	AssignVehicleToDriver(ctx context.Context, owner, driverID, vehicleID primitive.ObjectID) (*models.Driver, error)
}

// DriverHandler serves /drivers. Every route is owner only.
type DriverHandler struct {
	service DriverService
}

// NewDriverHandler creates a new driver handler
func NewDriverHandler(service DriverService) *DriverHandler {
	return &DriverHandler{service: service}
}

// List handles GET /drivers
func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	status := models.DriverStatus(r.URL.Query().Get("status"))
	drivers, err := h.service.ListDrivers(r.Context(), id.UserID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, drivers)
}

// Get handles GET /drivers/{id}
func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	driverID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	driver, err := h.service.GetDriver(r.Context(), id.UserID, driverID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, driver)
}

// Create handles POST /drivers. The driver's login user is created with it.
func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req models.DriverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	driver, err := h.service.CreateDriver(r.Context(), id.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, driver)
}

// Update handles PUT /drivers/{id}
func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	driverID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.DriverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	driver, err := h.service.UpdateDriver(r.Context(), id.UserID, driverID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, driver)
}

// Delete handles DELETE /drivers/{id}. The driver's vehicles are released.
func (h *DriverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	driverID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteDriver(r.Context(), id.UserID, driverID); err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w)
}

// AssignVehicle handles PUT /drivers/{id}/assign-vehicle. The driver is moved
// to the vehicle, releasing any vehicle it held before.
func (h *DriverHandler) AssignVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	driverID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.AssignVehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.VehicleID == "" {
		writeError(w, r, badRequest("Please provide a vehicle"))
		return
	}
	vehicleID, err := parseID(req.VehicleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	driver, err := h.service.AssignVehicleToDriver(r.Context(), id.UserID, driverID, vehicleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, driver)
}
