// Package types holds the admin view of records owned by other domains, so
// adapters can map into them without importing the admin service.
package types

import id "kycflow/pkg/domain"

// Applicant is the identity side of an application as admins see it.
type Applicant struct {
	UserID id.UserID
	KycID  string
	Email  string
}
