package audit

import (
	"time"

	id "kycflow/pkg/domain"
)

// Category classifies events by purpose so sinks can route and retain them
// differently.
type Category string

const (
	// CategoryCompliance covers identity and application decisions.
	CategoryCompliance Category = "compliance"
	// CategorySecurity covers authentication failures and access violations.
	CategorySecurity Category = "security"
	// CategoryOperations covers routine activity and cleanup problems.
	CategoryOperations Category = "operations"
)

type Action string

const (
	// Identity
	ActionUserRegistered Action = "user_registered"
	ActionUserLoggedIn   Action = "user_logged_in"
	ActionLoginFailed    Action = "login_failed"
	ActionUserLoggedOut  Action = "user_logged_out"

	// Onboarding steps
	ActionPersonalDetailsSubmitted Action = "personal_details_submitted"
	ActionDocumentSelected         Action = "document_selected"
	ActionDocumentUploaded         Action = "document_uploaded"
	ActionAttemptsExhausted        Action = "attempts_exhausted"
	ActionPhotoMatchPassed         Action = "photo_match_passed"
	ActionPhotoMatchFailed         Action = "photo_match_failed"
	ActionApplicationSubmitted     Action = "application_submitted"
	ActionApplicationReviewed      Action = "application_reviewed"
	ActionDocumentAccessDenied     Action = "document_access_denied"

	// Operations
	ActionBlobReleaseFailed Action = "blob_release_failed"
)

var actionCategories = map[Action]Category{
	ActionUserRegistered:           CategoryCompliance,
	ActionUserLoggedIn:             CategoryOperations,
	ActionLoginFailed:              CategorySecurity,
	ActionUserLoggedOut:            CategoryOperations,
	ActionPersonalDetailsSubmitted: CategoryCompliance,
	ActionDocumentSelected:         CategoryOperations,
	ActionDocumentUploaded:         CategoryCompliance,
	ActionAttemptsExhausted:        CategoryCompliance,
	ActionPhotoMatchPassed:         CategoryCompliance,
	ActionPhotoMatchFailed:         CategoryCompliance,
	ActionApplicationSubmitted:     CategoryCompliance,
	ActionApplicationReviewed:      CategoryCompliance,
	ActionDocumentAccessDenied:     CategorySecurity,
	ActionBlobReleaseFailed:        CategoryOperations,
}

// CategoryOf returns the category an action is filed under.
func CategoryOf(a Action) Category {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            string            `json:"id"`
	Category      Category          `json:"category"`
	Action        Action            `json:"action"`
	Timestamp     time.Time         `json:"timestamp"`
	UserID        id.UserID         `json:"user_id"`
	ApplicationID string            `json:"application_id,omitempty"`
	KycID         string            `json:"kyc_id,omitempty"`
	// ActorID is set when someone other than the user acted, e.g. an admin review.
	ActorID   string            `json:"actor_id,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
}
