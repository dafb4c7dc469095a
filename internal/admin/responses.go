package admin

import "time"

// ApplicationSummary is the HTTP response DTO for one application in review.
type ApplicationSummary struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	KycID         string     `json:"kyc_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	Status        string     `json:"status"`
	CurrentStep   int        `json:"current_step"`
	FailureReason string     `json:"failure_reason,omitempty"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ApplicationsListResponse wraps the list of applications for HTTP response.
type ApplicationsListResponse struct {
	Applications []*ApplicationSummary `json:"applications"`
	Total        int                   `json:"total"`
}
