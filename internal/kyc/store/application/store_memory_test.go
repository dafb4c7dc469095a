package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryStoreSuite) newApp() *models.Application {
	app, err := models.NewApplication(id.NewApplicationID(), id.NewUserID(), time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), app))
	return app
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	app := s.newApp()

	s.Run("by id and by user", func() {
		got, err := s.store.FindByID(ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(app.UserID, got.UserID)

		got, err = s.store.FindByUser(ctx, app.UserID)
		s.Require().NoError(err)
		s.Equal(app.ID, got.ID)
	})

	s.Run("one application per user", func() {
		dup, _ := models.NewApplication(id.NewApplicationID(), app.UserID, time.Now())
		err := s.store.Create(ctx, dup)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("missing", func() {
		_, err := s.store.FindByUser(ctx, id.NewUserID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned copies are detached", func() {
		got, _ := s.store.FindByID(ctx, app.ID)
		got.Status = models.StatusApproved
		again, _ := s.store.FindByID(ctx, app.ID)
		s.Equal(models.StatusNotStarted, again.Status)
	})
}

func (s *InMemoryStoreSuite) TestExecute() {
	ctx := context.Background()

	s.Run("validate error leaves application untouched", func() {
		app := s.newApp()
		_, err := s.store.Execute(ctx, app.ID,
			func(a *models.Application) error { return dErrors.New(dErrors.CodeInvalidState, "nope") },
			func(a *models.Application) { a.ApplyRejection("x", time.Now()) },
		)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		got, _ := s.store.FindByID(ctx, app.ID)
		s.Equal(models.StatusNotStarted, got.Status)
	})

	s.Run("mutation is persisted", func() {
		app := s.newApp()
		updated, err := s.store.Execute(ctx, app.ID,
			func(a *models.Application) error { return a.CanAcceptUpload() },
			func(a *models.Application) { a.ApplyUpload(time.Now()) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, updated.Status)
		got, _ := s.store.FindByID(ctx, app.ID)
		s.Equal(models.StepDocumentUpload, got.CurrentStep)
	})

	s.Run("illegal transition is discarded", func() {
		app := s.newApp()
		_, err := s.store.Execute(ctx, app.ID,
			func(*models.Application) error { return nil },
			func(a *models.Application) { a.ApplyApproval(time.Now()) },
		)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		got, _ := s.store.FindByID(ctx, app.ID)
		s.Equal(models.StatusNotStarted, got.Status)
	})

	s.Run("unknown id", func() {
		_, err := s.store.Execute(ctx, id.NewApplicationID(),
			func(*models.Application) error { return nil },
			func(*models.Application) {},
		)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("concurrent rejections apply once", func() {
		app := s.newApp()
		var wg sync.WaitGroup
		var mu sync.Mutex
		applied := 0
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.store.Execute(ctx, app.ID,
					func(a *models.Application) error { return a.CanAcceptUpload() },
					func(a *models.Application) { a.ApplyRejection(models.ReasonMaxAttempts, time.Now()) },
				)
				if err == nil {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		s.Equal(1, applied)
	})
}

func (s *InMemoryStoreSuite) TestListFiltersByStatus() {
	ctx := context.Background()
	a := s.newApp()
	s.newApp()
	_, err := s.store.Execute(ctx, a.ID,
		func(*models.Application) error { return nil },
		func(app *models.Application) { app.ApplyPersonalDetails(models.PersonalDetails{FullName: "A"}, time.Now()) },
	)
	s.Require().NoError(err)

	all, err := s.store.List(ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	inProgress, err := s.store.List(ctx, models.StatusInProgress)
	s.Require().NoError(err)
	s.Require().Len(inProgress, 1)
	s.Equal(a.ID, inProgress[0].ID)
}
