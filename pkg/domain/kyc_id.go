package domain

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"

	dErrors "kycflow/pkg/domain-errors"
)

// KycIDPrefix is the fixed prefix of every public KYC identifier.
const KycIDPrefix = "KYC-"

const kycIDSuffixLen = 8

// KycID is the public, user-facing identifier handed out at registration.
// Format: "KYC-" followed by 8 uppercase alphanumerics. Immutable once issued.
type KycID string

const kycIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewKycID draws the suffix from the 62 random low bits of a v4 UUID, one
// base-36 digit at a time. Collisions are rejected by the unique index on
// users.kyc_id.
func NewKycID() KycID {
	u := uuid.New()
	v := binary.BigEndian.Uint64(u[8:]) & (1<<62 - 1)
	var suffix [kycIDSuffixLen]byte
	for i := range suffix {
		suffix[i] = kycIDAlphabet[v%uint64(len(kycIDAlphabet))]
		v /= uint64(len(kycIDAlphabet))
	}
	return KycID(KycIDPrefix + string(suffix[:]))
}

// ParseKycID validates external input. Lowercase input is normalised.
func ParseKycID(s string) (KycID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "kyc_id cannot be empty")
	}
	suffix, ok := strings.CutPrefix(s, KycIDPrefix)
	if !ok || len(suffix) != kycIDSuffixLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid kyc_id")
	}
	for _, r := range suffix {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid kyc_id")
		}
	}
	return KycID(s), nil
}

func (k KycID) String() string { return string(k) }
