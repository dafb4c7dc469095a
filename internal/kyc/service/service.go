package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycflow/internal/attempts"
	"kycflow/internal/audit"
	"kycflow/internal/kyc/metrics"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
)

type ApplicationStore interface {
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	FindByUser(ctx context.Context, userID id.UserID) (*models.Application, error)
	List(ctx context.Context, status models.ApplicationStatus) ([]*models.Application, error)
	Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error)
}

type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*models.Document, error)
	CountByApplication(ctx context.Context, appID id.ApplicationID) (int, error)
}

type AttemptLedger interface {
	AttemptsRemaining(ctx context.Context, appID id.ApplicationID, step, max int) (int, error)
	Consume(ctx context.Context, appID id.ApplicationID, step, max int) (int, bool, error)
}

// BlobStore is the part of blob storage the workflow touches; the transport
// writes blobs before the workflow runs.
type BlobStore interface {
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
}

type Scorer interface {
	Score(ctx context.Context, appID id.ApplicationID) (int, error)
}

// TxRunner spans the attempt, document and application writes of one step.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	DefaultPhotoMatchThreshold = 60
	blobReleaseTimeout         = 5 * time.Second
	tracerName                 = "kycflow/internal/kyc/service"
)

// Service is the workflow orchestrator for KYC onboarding.
type Service struct {
	apps    ApplicationStore
	docs    DocumentStore
	ledger  AttemptLedger
	blobs   BlobStore
	scorer  Scorer
	tx      TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Emitter
	tracer  trace.Tracer

	maxAttempts    int
	photoThreshold int
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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithPhotoMatchThreshold(score int) Option {
	return func(s *Service) {
		if score > 0 && score <= 100 {
			s.photoThreshold = score
		}
	}
}

func New(apps ApplicationStore, docs DocumentStore, ledger AttemptLedger, blobs BlobStore, scorer Scorer, opts ...Option) *Service {
	s := &Service{
		apps:           apps,
		docs:           docs,
		ledger:         ledger,
		blobs:          blobs,
		scorer:         scorer,
		tx:             passthroughTx{},
		logger:         slog.Default(),
		auditor:        noopAuditor{},
		tracer:         otel.Tracer(tracerName),
		maxAttempts:    attempts.DefaultMaxAttempts,
		photoThreshold: DefaultPhotoMatchThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) MaxAttempts() int { return s.maxAttempts }

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, audit.Event) {}

// startSpan opens a span and a timer for one workflow operation. The returned
// func records err on the span and ends it.
func (s *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "kyc."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveOperation(op, time.Since(start))
	}
}

// applicationFor resolves the caller's application.
func (s *Service) applicationFor(ctx context.Context, userID id.UserID) (*models.Application, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	app, err := s.apps.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "KYC application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load KYC application")
	}
	return app, nil
}

// translate keeps domain errors and maps store facts to domain errors.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "KYC application not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// releaseBlob deletes an orphaned upload. It runs detached from request
// cancellation; failures are logged, counted and audited but never returned.
func (s *Service) releaseBlob(ctx context.Context, userID id.UserID, handle string) {
	if handle == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), blobReleaseTimeout)
	defer cancel()
	if err := s.blobs.Delete(ctx, handle); err != nil {
		s.metrics.IncrementBlobReleaseFailure()
		s.logger.ErrorContext(ctx, "failed to release uploaded blob",
			"error", err,
			"storage_handle", handle,
		)
		s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionBlobReleaseFailed,
			UserID:  userID,
			Details: map[string]string{"storage_handle": handle},
		})
	}
}

func (s *Service) attemptsLeft(ctx context.Context, appID id.ApplicationID) map[string]int {
	out := make(map[string]int, 2)
	for name, step := range map[string]models.Step{"upload": models.StepDocumentUpload, "photoMatch": models.StepPhotoMatch} {
		n, err := s.ledger.AttemptsRemaining(ctx, appID, step.Int(), s.maxAttempts)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to read attempts", "error", err, "application_id", appID.String())
			continue
		}
		out[name] = n
	}
	return out
}
