package models

import "time"

// DashboardResponse is the owner's view of their application.
type DashboardResponse struct {
	Message string           `json:"message,omitempty"`
	KYC     *ApplicationView `json:"kyc"`
}

type ApplicationView struct {
	ID                string             `json:"id"`
	Status            ApplicationStatus  `json:"status"`
	CurrentStep       Step               `json:"currentStep"`
	FailureReason     string             `json:"failureReason,omitempty"`
	PersonalDetails   *PersonalDetails   `json:"personalDetails,omitempty"`
	SelectedDocuments []SelectedDocument `json:"selectedDocuments,omitempty"`
	AttemptsLeft      map[string]int     `json:"attemptsLeft,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func NewApplicationView(app *Application, attemptsLeft map[string]int) *ApplicationView {
	return &ApplicationView{
		ID:                app.ID.String(),
		Status:            app.Status,
		CurrentStep:       app.CurrentStep,
		FailureReason:     app.FailureReason,
		PersonalDetails:   app.PersonalDetails,
		SelectedDocuments: app.SelectedDocuments,
		AttemptsLeft:      attemptsLeft,
		UpdatedAt:         app.UpdatedAt,
	}
}

// UploadResult is returned for an accepted upload.
type UploadResult struct {
	Message      string `json:"message"`
	AttemptsLeft int    `json:"attemptsLeft"`
	DocumentID   string `json:"documentId"`
}

// PhotoMatchResult carries the score whether or not the match passed.
type PhotoMatchResult struct {
	Message string `json:"message"`
	Match   int    `json:"match"`
	Passed  bool   `json:"-"`
}

type DocumentListResponse struct {
	Documents []*Document `json:"documents"`
}
