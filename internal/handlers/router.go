package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ukydev/rmc-fleet/internal/auth"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/middleware"
	"github.com/ukydev/rmc-fleet/internal/models"
)

// loginWindow is the period LoginRateLimit applies to.
const loginWindow = 15 * time.Minute

// FleetService is everything the API needs from the fleet service.
type FleetService interface {
	VehicleService
	DriverService
	ChecklistService
	ExpenseService
	DocumentService
	ProfileService
}

var _ FleetService = (*fleet.Service)(nil)

// Dependencies are the collaborators of the API router.
type Dependencies struct {
	Auth           *auth.Service
	Users          db.UserCollection
	Fleet          FleetService
	CORSOrigin     string
	RequestTimeout time.Duration
	LoginRateLimit int
}

// NewRouter builds the /api routes. Request id, access log, CORS and the
// request timeout wrap the whole router so preflight and unmatched requests
// pass through them too.
func NewRouter(deps Dependencies) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)
	limiter := middleware.NewRateLimitMiddleware()

	ownerOnly := authMiddleware.RequireRole(models.RoleOwner)
	owner := func(h http.HandlerFunc) http.Handler { return ownerOnly(h) }
	can := func(action string, h http.HandlerFunc) http.Handler {
		return authMiddleware.RequirePermission(action)(h)
	}

	authHandler := NewAuthHandler(deps.Auth, deps.Users, deps.Fleet)
	vehicles := NewVehicleHandler(deps.Fleet)
	drivers := NewDriverHandler(deps.Fleet)
	checklists := NewChecklistHandler(deps.Fleet)
	expenses := NewExpenseHandler(deps.Fleet)
	documents := NewDocumentHandler(deps.Fleet)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api.Handle("/auth/register", http.HandlerFunc(authHandler.Register)).Methods("POST")
	api.Handle("/auth/login", limiter.RateLimit(deps.LoginRateLimit, loginWindow)(http.HandlerFunc(authHandler.Login))).Methods("POST")
	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("GET")
	api.HandleFunc("/auth/password", authHandler.ChangePassword).Methods("PUT")

	api.Handle("/vehicles", can("view_vehicles", vehicles.List)).Methods("GET")
	api.Handle("/vehicles", owner(vehicles.Create)).Methods("POST")
	api.Handle("/vehicles/{id}/details", can("view_vehicles", vehicles.Details)).Methods("GET")
	api.Handle("/vehicles/{id}/assign-driver", owner(vehicles.AssignDriver)).Methods("PUT")
	api.Handle("/vehicles/{id}", can("view_vehicles", vehicles.Get)).Methods("GET")
	api.Handle("/vehicles/{id}", owner(vehicles.Update)).Methods("PUT")
	api.Handle("/vehicles/{id}", owner(vehicles.Delete)).Methods("DELETE")

	api.Handle("/drivers", owner(drivers.List)).Methods("GET")
	api.Handle("/drivers", owner(drivers.Create)).Methods("POST")
	api.Handle("/drivers/{id}/assign-vehicle", owner(drivers.AssignVehicle)).Methods("PUT")
	api.Handle("/drivers/{id}", owner(drivers.Get)).Methods("GET")
	api.Handle("/drivers/{id}", owner(drivers.Update)).Methods("PUT")
	api.Handle("/drivers/{id}", owner(drivers.Delete)).Methods("DELETE")

	api.Handle("/checklists/today", can("view_checklists", checklists.Today)).Methods("GET")
	api.Handle("/checklists", can("view_checklists", checklists.List)).Methods("GET")
	api.Handle("/checklists", can("submit_checklist", checklists.Create)).Methods("POST")
	api.Handle("/checklists/{id}", can("view_checklists", checklists.Get)).Methods("GET")
	api.Handle("/checklists/{id}", can("submit_checklist", checklists.Update)).Methods("PUT")
	api.Handle("/checklists/{id}", owner(checklists.Delete)).Methods("DELETE")

	api.Handle("/expenses/summary", owner(expenses.Summary)).Methods("GET")
	api.Handle("/expenses", can("view_expenses", expenses.List)).Methods("GET")
	api.Handle("/expenses", can("submit_expense", expenses.Create)).Methods("POST")
	api.Handle("/expenses/{id}/approve", owner(expenses.Approve)).Methods("PUT")
	api.Handle("/expenses/{id}/reject", owner(expenses.Reject)).Methods("PUT")
	api.Handle("/expenses/{id}/bill", can("view_expenses", expenses.Bill)).Methods("GET")
	api.Handle("/expenses/{id}", can("view_expenses", expenses.Get)).Methods("GET")
	api.Handle("/expenses/{id}", can("submit_expense", expenses.Update)).Methods("PUT")
	api.Handle("/expenses/{id}", can("submit_expense", expenses.Delete)).Methods("DELETE")

	api.Handle("/documents/expiring", owner(documents.Expiring)).Methods("GET")
	api.Handle("/documents", owner(documents.List)).Methods("GET")
	api.Handle("/documents", owner(documents.Create)).Methods("POST")
	api.Handle("/documents/{id}/file", owner(documents.File)).Methods("GET")
	api.Handle("/documents/{id}", owner(documents.Get)).Methods("GET")
	api.Handle("/documents/{id}", owner(documents.Update)).Methods("PUT")
	api.Handle("/documents/{id}", owner(documents.Delete)).Methods("DELETE")

	var handler http.Handler = r
	handler = middleware.Timeout(deps.RequestTimeout)(handler)
	handler = middleware.CORS(deps.CORSOrigin)(handler)
	handler = middleware.AccessLog(handler)
	return middleware.RequestID(handler)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "ok", "message": "RMC Fleet API is running"})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": "Route not found"})
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{"success": false, "message": "Method not allowed"})
}
