package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"kycflow/internal/attempts"
	attemptstore "kycflow/internal/attempts/store"
	"kycflow/internal/audit"
	auditkafka "kycflow/internal/audit/kafka"
	auditmemory "kycflow/internal/audit/memory"
	auditpostgres "kycflow/internal/audit/postgres"
	"kycflow/internal/blobstore"
	identityService "kycflow/internal/identity/service"
	"kycflow/internal/identity/store/revocation"
	"kycflow/internal/identity/store/user"
	kycService "kycflow/internal/kyc/service"
	"kycflow/internal/kyc/store/application"
	"kycflow/internal/kyc/store/document"
	"kycflow/internal/platform/config"
	"kycflow/internal/platform/postgres"
	platformredis "kycflow/internal/platform/redis"
	"kycflow/internal/ratelimit/middleware"
	"kycflow/internal/ratelimit/store/bucket"
	httptransport "kycflow/internal/transport/http"
	"kycflow/pkg/platform/tx"
)

// applicationStore is written by registration and driven by the workflow.
type applicationStore interface {
	identityService.ApplicationStore
	kycService.ApplicationStore
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type backends struct {
	users    identityService.UserStore
	apps     applicationStore
	docs     kycService.DocumentStore
	attempts attempts.Store
	trl      identityService.TokenRevocationList
	buckets  middleware.BucketStore
	tx       txRunner
	blobs    blobstore.Store
	sink     audit.Sink

	health  map[string]httptransport.HealthCheck
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends picks Postgres, Redis, S3 and Kafka when configured and falls
// back to in-process stores otherwise. Audit goes to Kafka, then Postgres,
// then memory. Attempts live next to the application
// rows when Postgres is available so a failed step rolls its attempt back.
func openBackends(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backends, error) {
	b := &backends{health: make(map[string]httptransport.HealthCheck)}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			b.close()
			return nil, err
		}
		b.users = user.NewPostgres(db)
		b.apps = application.NewPostgres(db)
		b.docs = document.NewPostgres(db)
		b.attempts = attemptstore.NewPostgres(db)
		b.tx = tx.NewRunner(db)
		b.health["postgres"] = db.PingContext
		logger.InfoContext(ctx, "using postgres stores")
	} else {
		b.users = user.New()
		b.apps = application.NewInMemory()
		b.docs = document.NewInMemory()
		b.attempts = attemptstore.NewInMemory()
		b.tx = tx.NewMemoryRunner()
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		b.close()
		return nil, err
	}
	if rc != nil {
		b.closers = append(b.closers, func() { _ = rc.Close() })
		b.trl = revocation.NewRedisTRL(rc.Client)
		b.buckets = bucket.NewRedisStore(rc.Client)
		if cfg.DatabaseURL == "" {
			b.attempts = attemptstore.NewRedis(rc.Client)
		}
		b.health["redis"] = rc.Health
	} else {
		b.trl = revocation.NewInMemoryTRL()
		b.buckets = bucket.NewInMemoryBucketStore()
	}

	if cfg.Blob.S3Bucket != "" {
		s3, err := blobstore.NewS3FromConfig(ctx, cfg.Blob)
		if err != nil {
			b.close()
			return nil, err
		}
		b.blobs = s3
		logger.InfoContext(ctx, "using s3 blob store", "bucket", cfg.Blob.S3Bucket)
	} else {
		local, err := blobstore.NewLocal(cfg.Blob.UploadDir)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("upload dir: %w", err)
		}
		b.blobs = local
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, logger)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, sink.Close)
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			logger.WarnContext(ctx, "audit topic bootstrap failed", "error", err, "topic", cfg.Kafka.AuditTopic)
		}
		b.sink = sink
		b.health["kafka"] = sink.Ping
	} else if db != nil {
		b.sink = auditpostgres.NewSink(db)
	} else {
		b.sink = auditmemory.NewInMemoryStore()
	}

	return b, nil
}
