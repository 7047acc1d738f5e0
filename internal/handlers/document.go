package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentService is the part of the fleet service behind /documents.
type DocumentService interface {
	CreateDocument(ctx context.Context, owner primitive.ObjectID, req models.DocumentRequest) (*models.Document, error)
	UpdateDocument(ctx context.Context, owner, id primitive.ObjectID, req models.DocumentRequest) (*models.Document, error)
	GetDocument(ctx context.Context, owner, id primitive.ObjectID) (*models.Document, error)
	DocumentFile(ctx context.Context, owner, id primitive.ObjectID) (*models.Attachment, error)
	DeleteDocument(ctx context.Context, owner, id primitive.ObjectID) error
	ListDocuments(ctx context.Context, owner primitive.ObjectID, filter models.DocumentFilter) ([]models.Document, error)
	ExpiringDocuments(ctx context.Context, owner primitive.ObjectID) ([]models.Document, error)
}

// DocumentHandler serves /documents. Every route is owner only.
type DocumentHandler struct {
	service DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// documentFilter reads ?vehicle=&type=&status=, where status may list
// several values separated by commas.
func documentFilter(r *http.Request) (models.DocumentFilter, error) {
	var filter models.DocumentFilter
	var err error
	if filter.Vehicle, err = optionalQueryID(r, "vehicle"); err != nil {
		return filter, err
	}
	q := r.URL.Query()
	if typ := models.DocumentType(q.Get("type")); typ != "" {
		if !typ.IsValid() {
			return filter, badRequest("Invalid document type " + string(typ))
		}
		filter.Type = typ
	}
	if status := q.Get("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			filter.Status = append(filter.Status, models.DocumentStatus(strings.TrimSpace(s)))
		}
	}
	return filter, nil
}

// List handles GET /documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	filter, err := documentFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	documents, err := h.service.ListDocuments(r.Context(), id.UserID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, documents)
}

// Expiring handles GET /documents/expiring
func (h *DocumentHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	documents, err := h.service.ExpiringDocuments(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondList(w, documents)
}

// Get handles GET /documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	documentID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	document, err := h.service.GetDocument(r.Context(), id.UserID, documentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, document)
}

// File handles GET /documents/{id}/file
func (h *DocumentHandler) File(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	documentID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, err := h.service.DocumentFile(r.Context(), id.UserID, documentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveAttachment(w, r, file)
}

// Create handles POST /documents, as JSON or as a form carrying the scan.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req models.DocumentRequest
	file, err := decodeUpload(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.File = file
	document, err := h.service.CreateDocument(r.Context(), id.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, document)
}

// Update handles PUT /documents/{id}
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	documentID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.DocumentRequest
	file, err := decodeUpload(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.File = file
	document, err := h.service.UpdateDocument(r.Context(), id.UserID, documentID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, document)
}

// Delete handles DELETE /documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	documentID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteDocument(r.Context(), id.UserID, documentID); err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w)
}
