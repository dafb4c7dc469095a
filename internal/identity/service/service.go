package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kycflow/internal/audit"
	"kycflow/internal/identity/metrics"
	"kycflow/internal/identity/models"
	kycModels "kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByLogin(ctx context.Context, kycID id.KycID, email string) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

// ApplicationStore is the slice of the KYC application store registration needs.
type ApplicationStore interface {
	Create(ctx context.Context, app *kycModels.Application) error
}

// TokenIssuer signs access tokens and reports the expiry it signed.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, role string, kycID string, expiresIn time.Duration) (string, time.Time, error)
}

type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TxRunner groups the user and application inserts of a registration.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTokenTTL = 24 * time.Hour

// Service owns user accounts and session tokens.
type Service struct {
	users      UserStore
	apps       ApplicationStore
	tokens     TokenIssuer
	trl        TokenRevocationList
	tx         TxRunner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    audit.Emitter
	tokenTTL   time.Duration
	bcryptCost int

	// dummyHash is compared against when the login identifier is unknown.
	dummyHash []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

func WithTx(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithBcryptCost lowers hashing cost in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func New(users UserStore, apps ApplicationStore, tokens TokenIssuer, trl TokenRevocationList, opts ...Option) *Service {
	s := &Service{
		users:      users,
		apps:       apps,
		tokens:     tokens,
		trl:        trl,
		tx:         passthroughTx{},
		logger:     slog.Default(),
		auditor:    noopAuditor{},
		tokenTTL:   defaultTokenTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("kycflow-dummy-password"), s.bcryptCost)
	if err != nil {
		panic(err)
	}
	s.dummyHash = hash
	return s
}

func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, audit.Event) {}
