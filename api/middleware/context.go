package middleware

import (
	"context"

	"github.com/angelmondragon/movies-backend/internal/uploads"
)

type contextKey string

const (
	ctxRequestID    contextKey = "request_id"
	ctxUploadedFile contextKey = "uploaded_file"
)

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// UploadedFileFromContext returns the file stored by SingleUpload, if any.
func UploadedFileFromContext(ctx context.Context) *uploads.StoredFile {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUploadedFile).(*uploads.StoredFile); ok {
		return v
	}
	return nil
}

// WithUploadedFile attaches a stored upload to the context for downstream handlers.
func WithUploadedFile(ctx context.Context, file *uploads.StoredFile) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUploadedFile, file)
}
