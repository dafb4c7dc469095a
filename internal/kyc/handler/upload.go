package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"kycflow/internal/blobstore"
	"kycflow/internal/kyc/models"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/auth"
	request "kycflow/pkg/platform/middleware/request"
)

const (
	DefaultMaxUploadBytes int64 = 5 << 20

	// multipartOverhead covers boundaries and the type field around the file.
	multipartOverhead int64 = 64 << 10
)

var allowedMediaTypes = []string{models.MediaJPEG, models.MediaPNG, models.MediaPDF}

// BlobWriter stores the uploaded bytes before the workflow sees them.
type BlobWriter interface {
	Put(ctx context.Context, r io.Reader, meta blobstore.Meta) (string, error)
}

// HandleUpload accepts multipart field "document" plus a "type" tag. The file
// type is sniffed from content, not trusted from the client.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "File too large"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "Document file is required"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("document")
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "Document file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "File too large"))
		return
	}
	mediaType, err := sniff(file)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	handle, err := h.blobs.Put(ctx, file, blobstore.Meta{MediaType: mediaType, Size: header.Size})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to store uploaded document",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "Upload failed"))
		return
	}

	res, err := h.service.UploadDocument(ctx, auth.GetUserID(ctx), models.Upload{
		DocumentType:  r.FormValue("type"),
		StorageHandle: handle,
		MediaType:     mediaType,
		SizeBytes:     header.Size,
	})
	if err != nil {
		h.logFailure(ctx, "document upload failed", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// sniff detects the media type and rewinds the file.
func sniff(file multipart.File) (string, error) {
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "Unreadable document")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "Upload failed")
	}
	for _, allowed := range allowedMediaTypes {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "Only JPEG, PNG or PDF documents are accepted")
}
