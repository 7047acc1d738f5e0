package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentType is the kind of statutory vehicle paper
type DocumentType string

const (
	DocRCBook    DocumentType = "RC Book"
	DocInsurance DocumentType = "Insurance"
	DocFitness   DocumentType = "Fitness"
	DocPermit    DocumentType = "Permit"
	DocPollution DocumentType = "Pollution"
	DocService   DocumentType = "Service"
)

// IsValid reports whether t is a known document type
func (t DocumentType) IsValid() bool {
	switch t {
	case DocRCBook, DocInsurance, DocFitness, DocPermit, DocPollution, DocService:
		return true
	default:
		return false
	}
}

// DocumentStatus is derived from the expiry date
type DocumentStatus string

const (
	DocValid    DocumentStatus = "Valid"
	DocExpiring DocumentStatus = "Expiring"
	DocExpired  DocumentStatus = "Expired"
)

// ExpiringWindowDays is how far ahead a document counts as expiring
const ExpiringWindowDays = 30

// DocumentStatusAt derives the status of a document expiring at expiry, as seen at now.
func DocumentStatusAt(expiry, now time.Time) DocumentStatus {
	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return DocExpired
	case days <= ExpiringWindowDays:
		return DocExpiring
	default:
		return DocValid
	}
}

// Document is a vehicle paper with an expiry date and an optional scan
type Document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Vehicle    primitive.ObjectID `bson:"vehicle" json:"vehicle"`
	Type       DocumentType       `bson:"type" json:"type"`
	File       *Attachment        `bson:"file,omitempty" json:"file,omitempty"`
	ExpiryDate time.Time          `bson:"expiry_date" json:"expiryDate"`
	Status     DocumentStatus     `bson:"status" json:"status"`
	Owner      primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`

	VehicleInfo *VehicleRef `bson:"-" json:"vehicleInfo,omitempty"`
}

// Derive recomputes Status from ExpiryDate
func (d *Document) Derive(now time.Time) {
	d.Status = DocumentStatusAt(d.ExpiryDate, now)
}

// DocumentRequest is the body of document create and update calls
type DocumentRequest struct {
	Vehicle    OptionalID    `json:"vehicle"`
	Type       *DocumentType `json:"type"`
	ExpiryDate *time.Time    `json:"expiryDate"`
	File       *Attachment   `json:"-"`
}

// DocumentFilter narrows document lists
type DocumentFilter struct {
	Vehicle *primitive.ObjectID
	Type    DocumentType
	Status  []DocumentStatus
}
