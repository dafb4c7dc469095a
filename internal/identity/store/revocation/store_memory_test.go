package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycflow/pkg/platform/sentinel"
)

type InMemoryTRLSuite struct {
	suite.Suite
	trl *InMemoryTRL
	now time.Time
}

func TestInMemoryTRLSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTRLSuite))
}

func (s *InMemoryTRLSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.trl = NewInMemoryTRL()
	s.trl.now = func() time.Time { return s.now }
}

func (s *InMemoryTRLSuite) TestRevokeAndExpire() {
	ctx := context.Background()
	s.Require().NoError(s.trl.RevokeToken(ctx, "jti-1", time.Minute))

	revoked, err := s.trl.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	s.now = s.now.Add(time.Minute)
	revoked, err = s.trl.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked, "entry expires with the token")
}

func (s *InMemoryTRLSuite) TestUnknownAndEmpty() {
	revoked, err := s.trl.IsRevoked(context.Background(), "missing")
	s.Require().NoError(err)
	s.False(revoked)

	s.NoError(s.trl.RevokeToken(context.Background(), "", time.Minute))
	revoked, err = s.trl.IsRevoked(context.Background(), "")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *InMemoryTRLSuite) TestRejectsNonPositiveTTL() {
	err := s.trl.RevokeToken(context.Background(), "jti", 0)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}
