package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"kycflow/internal/audit"
	"kycflow/internal/audit/memory"
	id "kycflow/pkg/domain"
	"kycflow/pkg/requestcontext"
)

type failingSink struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSink) Append(context.Context, ...audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("broker unavailable")
}

type PublisherSuite struct {
	suite.Suite
	store   *memory.InMemoryStore
	metrics *audit.Metrics
	logger  *slog.Logger
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.metrics = audit.NewMetrics(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *PublisherSuite) TestEmitEnrichesFromContext() {
	p := audit.NewPublisher(s.store, audit.WithLogger(s.logger), audit.WithBatch(1, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reqCtx := requestcontext.WithTime(context.Background(), now)
	reqCtx = requestcontext.WithRequestID(reqCtx, "req-1")
	reqCtx = requestcontext.WithClientMetadata(reqCtx, "10.0.0.1", "ua")
	userID := id.NewUserID()

	p.Emit(reqCtx, audit.Event{Action: audit.ActionUserRegistered, UserID: userID})

	s.Eventually(func() bool {
		events, _ := s.store.ListByUser(context.Background(), userID)
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	events, err := s.store.ListByUser(context.Background(), userID)
	s.Require().NoError(err)
	e := events[0]
	s.NotEmpty(e.ID)
	s.Equal(audit.CategoryCompliance, e.Category)
	s.Equal(now, e.Timestamp)
	s.Equal("req-1", e.RequestID)
	s.Equal("10.0.0.1", e.ClientIP)
}

func (s *PublisherSuite) TestCloseDrainsQueue() {
	p := audit.NewPublisher(s.store, audit.WithLogger(s.logger), audit.WithBatch(100, time.Hour))
	for range 10 {
		p.Emit(context.Background(), audit.Event{Action: audit.ActionDocumentUploaded, UserID: id.NewUserID()})
	}

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	s.Require().NoError(p.Close())
	s.Require().NoError(<-done)

	all, err := s.store.ListAll(context.Background())
	s.Require().NoError(err)
	s.Len(all, 10)
}

func (s *PublisherSuite) TestFullQueueDropsWithoutBlocking() {
	p := audit.NewPublisher(s.store,
		audit.WithLogger(s.logger),
		audit.WithMetrics(s.metrics),
		audit.WithBuffer(2),
	)

	for range 5 {
		p.Emit(context.Background(), audit.Event{Action: audit.ActionLoginFailed})
	}

	s.Equal(3.0, testutil.ToFloat64(s.metrics.EventsDropped))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.EventsEmitted.WithLabelValues(string(audit.CategorySecurity))))
}

func (s *PublisherSuite) TestEmitAfterCloseIsDropped() {
	p := audit.NewPublisher(s.store, audit.WithLogger(s.logger), audit.WithMetrics(s.metrics))
	s.Require().NoError(p.Close())
	s.Require().NoError(p.Close())

	p.Emit(context.Background(), audit.Event{Action: audit.ActionUserLoggedIn})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.EventsDropped))
}

func (s *PublisherSuite) TestSinkFailureIsCounted() {
	sink := &failingSink{}
	p := audit.NewPublisher(sink,
		audit.WithLogger(s.logger),
		audit.WithMetrics(s.metrics),
		audit.WithBatch(100, time.Hour),
	)
	p.Emit(context.Background(), audit.Event{Action: audit.ActionUserLoggedIn})
	p.Emit(context.Background(), audit.Event{Action: audit.ActionUserLoggedIn})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	s.Require().NoError(p.Close())
	s.Require().NoError(<-done)

	s.Equal(1, sink.calls)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.PersistFailures))
}

func (s *PublisherSuite) TestCategoryOf() {
	s.Equal(audit.CategorySecurity, audit.CategoryOf(audit.ActionDocumentAccessDenied))
	s.Equal(audit.CategoryOperations, audit.CategoryOf(audit.Action("unknown")))
}
