package fleet

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validateDocument(d *models.Document) error {
	switch {
	case d.Vehicle.IsZero():
		return invalid("vehicle", "Please provide vehicle")
	case d.Type == "":
		return invalid("type", "Please provide document type")
	case !d.Type.IsValid():
		return invalid("type", "Invalid document type")
	case d.ExpiryDate.IsZero():
		return invalid("expiryDate", "Please provide expiry date")
	}
	return nil
}

// applyDocument copies the set fields of req onto d, checking that a new
// vehicle belongs to owner.
func (s *Service) applyDocument(ctx context.Context, owner primitive.ObjectID, d *models.Document, req models.DocumentRequest) error {
	if req.Vehicle.Set {
		if req.Vehicle.ID == nil {
			return invalid("vehicle", "Please provide vehicle")
		}
		if _, err := s.ownedVehicle(ctx, owner, *req.Vehicle.ID); err != nil {
			return err
		}
		d.Vehicle = *req.Vehicle.ID
	}
	if req.Type != nil {
		d.Type = *req.Type
	}
	if req.ExpiryDate != nil {
		d.ExpiryDate = *req.ExpiryDate
	}
	if req.File != nil {
		d.File = req.File
	}
	return nil
}

// CreateDocument stores a document of an owned vehicle with its status derived
// from the expiry date.
func (s *Service) CreateDocument(ctx context.Context, owner primitive.ObjectID, req models.DocumentRequest) (*models.Document, error) {
	document := &models.Document{Owner: owner}
	if err := s.applyDocument(ctx, owner, document, req); err != nil {
		return nil, err
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	document.Derive(s.now())
	if err := s.documents.InsertDocument(ctx, document); err != nil {
		return nil, storeErr(err, "Document")
	}
	log.WithFields(log.Fields{"document_id": document.ID.Hex(), "type": document.Type, "status": document.Status}).Info("document created")
	return document, nil
}

func (s *Service) ownedDocument(ctx context.Context, owner, id primitive.ObjectID) (*models.Document, error) {
	document, err := s.documents.FindDocumentByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Document")
	}
	if document.Owner != owner {
		return nil, ErrForbidden
	}
	return document, nil
}

// UpdateDocument updates the set fields of a document and re-derives its
// status.
func (s *Service) UpdateDocument(ctx context.Context, owner, id primitive.ObjectID, req models.DocumentRequest) (*models.Document, error) {
	document, err := s.ownedDocument(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyDocument(ctx, owner, document, req); err != nil {
		return nil, err
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	document.Derive(s.now())
	if err := s.documents.ReplaceDocument(ctx, document); err != nil {
		return nil, storeErr(err, "Document")
	}
	return document, nil
}

// GetDocument returns a document with its status as of now.
func (s *Service) GetDocument(ctx context.Context, owner, id primitive.ObjectID) (*models.Document, error) {
	document, err := s.ownedDocument(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	document.Derive(s.now())
	r := s.newRefs()
	document.VehicleInfo = r.vehicle(ctx, document.Vehicle)
	return document, nil
}

// DocumentFile returns the scan attached to a document.
func (s *Service) DocumentFile(ctx context.Context, owner, id primitive.ObjectID) (*models.Attachment, error) {
	document, err := s.ownedDocument(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if document.File == nil || document.File.Data == "" {
		return nil, &NotFoundError{Message: "No file attached to this document"}
	}
	return document.File, nil
}

// DeleteDocument deletes a document of owner.
func (s *Service) DeleteDocument(ctx context.Context, owner, id primitive.ObjectID) error {
	if _, err := s.ownedDocument(ctx, owner, id); err != nil {
		return err
	}
	return storeErr(s.documents.DeleteDocument(ctx, id), "Document")
}

// ListDocuments lists documents by expiry, soonest first. Statuses are derived
// as of now before the status filter applies, so a stale stored status never
// shows.
func (s *Service) ListDocuments(ctx context.Context, owner primitive.ObjectID, filter models.DocumentFilter) ([]models.Document, error) {
	statuses := filter.Status
	filter.Status = nil
	documents, err := s.documents.FindDocuments(ctx, db.DocumentQuery{Owner: &owner, DocumentFilter: filter})
	if err != nil {
		return nil, storeErr(err, "Document")
	}

	now := s.now()
	r := s.newRefs()
	out := make([]models.Document, 0, len(documents))
	for i := range documents {
		d := documents[i]
		d.Derive(now)
		if len(statuses) > 0 && !hasStatus(statuses, d.Status) {
			continue
		}
		d.VehicleInfo = r.vehicle(ctx, d.Vehicle)
		out = append(out, d)
	}
	return out, nil
}

// ExpiringDocuments lists the owner's Expiring and Expired documents by expiry.
func (s *Service) ExpiringDocuments(ctx context.Context, owner primitive.ObjectID) ([]models.Document, error) {
	return s.ListDocuments(ctx, owner, models.DocumentFilter{
		Status: []models.DocumentStatus{models.DocExpiring, models.DocExpired},
	})
}

// RefreshDocumentStatuses re-derives the stored status of every document as
// of now and returns how many changed. Documents that move to Expiring or
// Expired are announced.
func (s *Service) RefreshDocumentStatuses(ctx context.Context, now time.Time) (int, error) {
	documents, err := s.documents.FindDocuments(ctx, db.DocumentQuery{})
	if err != nil {
		return 0, storeErr(err, "Document")
	}
	changed := 0
	for i := range documents {
		d := &documents[i]
		status := models.DocumentStatusAt(d.ExpiryDate, now)
		if status == d.Status {
			continue
		}
		if err := s.documents.UpdateDocumentStatus(ctx, d.ID, status); err != nil {
			return changed, storeErr(err, "Document")
		}
		changed++
		d.Status = status
		if status != models.DocValid {
			s.publish(ctx, events.DocumentExpiring, d.Owner, d.ID, d)
		}
	}
	return changed, nil
}

func hasStatus(statuses []models.DocumentStatus, status models.DocumentStatus) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}
