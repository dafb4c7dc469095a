package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"kycflow/pkg/platform/sentinel"
)

// contractSuite checks behaviour shared by every Store.
type contractSuite struct {
	suite.Suite
	newStore func() Store
}

func (s *contractSuite) TestPutOpenDelete() {
	ctx := context.Background()
	st := s.newStore()

	handle, err := st.Put(ctx, strings.NewReader("%PDF-1.4 body"), Meta{MediaType: "application/pdf", Size: 13})
	s.Require().NoError(err)
	s.True(strings.HasSuffix(handle, ".pdf"))

	rc, err := st.Open(ctx, handle)
	s.Require().NoError(err)
	b, err := io.ReadAll(rc)
	s.Require().NoError(rc.Close())
	s.Require().NoError(err)
	s.Equal("%PDF-1.4 body", string(b))

	s.Require().NoError(st.Delete(ctx, handle))
	s.NoError(st.Delete(ctx, handle), "delete is idempotent")

	_, err = st.Open(ctx, handle)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

type LocalStoreSuite struct{ contractSuite }

func TestLocalStoreSuite(t *testing.T) {
	s := new(LocalStoreSuite)
	s.newStore = func() Store {
		st, err := NewLocal(t.TempDir())
		require.NoError(t, err)
		return st
	}
	suite.Run(t, s)
}

func (s *LocalStoreSuite) TestRejectsEscapingHandles() {
	st := s.newStore()
	for _, h := range []string{"../etc/passwd", "/etc/passwd", "documents/../../x", "a\\b", ""} {
		_, err := st.Open(context.Background(), h)
		s.ErrorIs(err, sentinel.ErrNotFound, h)
	}
}

type InMemoryStoreSuite struct{ contractSuite }

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func() Store { return NewInMemory() }
	suite.Run(t, s)
}

// fakeS3 is a map-backed S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = b
	if in.ContentType != nil {
		f.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type S3StoreSuite struct{ contractSuite }

func TestS3StoreSuite(t *testing.T) {
	s := new(S3StoreSuite)
	s.newStore = func() Store { return NewS3(newFakeS3(), "kyc-documents") }
	suite.Run(t, s)
}

func (s *S3StoreSuite) TestSetsContentType() {
	fake := newFakeS3()
	st := NewS3(fake, "kyc-documents")
	handle, err := st.Put(context.Background(), strings.NewReader("png"), Meta{MediaType: "image/png", Size: 3})
	s.Require().NoError(err)
	s.Equal("image/png", fake.types[handle])
}

type failingS3 struct{ fakeS3 }

func (f *failingS3) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, errors.New("connection reset")
}

func TestS3PutFailure(t *testing.T) {
	st := NewS3(&failingS3{}, "kyc-documents")
	_, err := st.Put(context.Background(), strings.NewReader("x"), Meta{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestNewHandle(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	h := NewHandle(now, "image/jpeg")
	assert.True(t, strings.HasPrefix(h, "documents/2025/03/07/"))
	assert.True(t, strings.HasSuffix(h, ".jpg"))
	assert.NoError(t, validHandle(h))
	assert.NotEqual(t, h, NewHandle(now, "image/jpeg"))
}
