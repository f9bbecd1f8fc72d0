package middleware

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/angelmondragon/movies-backend/api/responses"
	"github.com/angelmondragon/movies-backend/internal/uploads"
	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
	"github.com/angelmondragon/movies-backend/pkg/logger"
)

const defaultMaxMemory = 32 << 20

type uploadSaver interface {
	Save(ctx context.Context, header *multipart.FileHeader) (*uploads.StoredFile, error)
}

// UploadOptions configures SingleUpload.
type UploadOptions struct {
	FieldName string
	// MaxMemory is the in-memory threshold before parts spill to temp files.
	MaxMemory int64
	// MaxBytes caps the whole request body; 0 disables the cap.
	MaxBytes int64
}

// SingleUpload stores at most one file sent under the configured field of a
// multipart request and exposes it through UploadedFileFromContext. Requests
// that are not multipart pass through untouched.
func SingleUpload(store uploadSaver, opts UploadOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.FieldName == "" {
		opts.FieldName = "image"
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = defaultMaxMemory
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			if opts.MaxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
			}
			if err := r.ParseMultipartForm(opts.MaxMemory); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, "request body too large").
						WithDetails(map[string]any{"limit_bytes": tooLarge.Limit}))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body").
					WithDetails(map[string]any{"error": err.Error()}))
				return
			}
			defer func() {
				_ = r.MultipartForm.RemoveAll()
			}()

			for field, headers := range r.MultipartForm.File {
				if field != opts.FieldName && len(headers) > 0 {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unexpected file field").
						WithDetails(map[string]any{"field": field}))
					return
				}
			}

			headers := r.MultipartForm.File[opts.FieldName]
			switch len(headers) {
			case 0:
				next.ServeHTTP(w, r)
				return
			case 1:
			default:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "only one file may be uploaded").
					WithDetails(map[string]any{"field": opts.FieldName}))
				return
			}

			stored, err := store.Save(ctx, headers[0])
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store upload"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUploadedFile(ctx, stored)))
		})
	}
}

// IsMultipart reports whether the request carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
