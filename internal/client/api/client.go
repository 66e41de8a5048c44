// Package api implements the TailorCV backend REST client.
//
// All methods classify failures via the apperr kinds: transport problems
// become transient network errors, rejected tokens/credentials become
// authentication errors, and failed generation/upload requests become
// server submission errors. Callers branch on apperr.KindOf, never on
// status codes or message strings.
package api

import (
	"context"

	"github.com/tailorcv/tailorcv-cli/internal/client/session"
)

// Upload is one file attached to a multipart submission.
type Upload struct {
	// FieldName is the multipart form field the backend expects.
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// Client is the full backend surface used by the application.
type Client interface {
	// Me verifies a session token and returns the fresh user record.
	Me(ctx context.Context, token string) (session.User, error)

	// LoginGoogle exchanges a Google credential for a session.
	LoginGoogle(ctx context.Context, credential string) (session.Session, error)

	// Logout invalidates the token server-side.
	Logout(ctx context.Context, token string) error

	// GenerateResume submits a resume-generation request and returns the
	// download reference for the produced document.
	GenerateResume(ctx context.Context, token string, fields map[string]string, upload *Upload) (string, error)

	// UploadPayment submits a payment-proof screenshot for manual review.
	UploadPayment(ctx context.Context, token string, fields map[string]string, upload *Upload) error
}
