package models

import (
	"time"

	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
)

// Document records one accepted upload. Records are append-only.
type Document struct {
	ID            id.DocumentID    `json:"id"`
	ApplicationID id.ApplicationID `json:"applicationId"`
	DocumentType  string           `json:"documentType"`
	StorageHandle string           `json:"-"`
	MediaType     string           `json:"mediaType"`
	SizeBytes     int64            `json:"sizeBytes"`
	Validated     bool             `json:"validated"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Upload describes a blob the transport already stored on the caller's behalf.
type Upload struct {
	DocumentType  string
	StorageHandle string
	MediaType     string
	SizeBytes     int64
}

func NewDocument(docID id.DocumentID, appID id.ApplicationID, up Upload, now time.Time) (*Document, error) {
	if docID.IsNil() || appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document and application ids are required")
	}
	if up.DocumentType == "" || up.StorageHandle == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document type and storage handle are required")
	}
	return &Document{
		ID:            docID,
		ApplicationID: appID,
		DocumentType:  up.DocumentType,
		StorageHandle: up.StorageHandle,
		MediaType:     up.MediaType,
		SizeBytes:     up.SizeBytes,
		Validated:     true,
		CreatedAt:     now,
	}, nil
}

// Accepted upload media types.
const (
	MediaJPEG = "image/jpeg"
	MediaPNG  = "image/png"
	MediaPDF  = "application/pdf"
)

func IsAllowedMediaType(mt string) bool {
	switch mt {
	case MediaJPEG, MediaPNG, MediaPDF:
		return true
	}
	return false
}

// DocumentCategory groups proofs the wizard asks for.
type DocumentCategory string

const (
	CategoryAddress  DocumentCategory = "address"
	CategoryIdentity DocumentCategory = "identity"
)

// DocumentKind is a concrete proof document.
type DocumentKind string

const (
	KindAadhaar  DocumentKind = "Aadhaar"
	KindPassport DocumentKind = "Passport"
	KindVoterID  DocumentKind = "VoterID"
	KindPAN      DocumentKind = "PAN"
)

var kindsByCategory = map[DocumentCategory][]DocumentKind{
	CategoryAddress:  {KindAadhaar, KindPassport, KindVoterID},
	CategoryIdentity: {KindPAN, KindAadhaar, KindPassport},
}

// Accepts reports whether kind may serve as proof for c.
func (c DocumentCategory) Accepts(kind DocumentKind) bool {
	for _, k := range kindsByCategory[c] {
		if k == kind {
			return true
		}
	}
	return false
}

// SelectedDocument is the proof a user picked at step 2.
type SelectedDocument struct {
	Category   DocumentCategory `json:"category"`
	Kind       DocumentKind     `json:"kind"`
	Number     string           `json:"number"`
	SelectedAt time.Time        `json:"selectedAt"`
}

// Tag is the document type an upload for this selection is expected to carry.
func (d SelectedDocument) Tag() string {
	return string(d.Category) + ":" + string(d.Kind) + ":" + d.Number
}
