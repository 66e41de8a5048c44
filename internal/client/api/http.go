package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
	"github.com/tailorcv/tailorcv-cli/internal/client/session"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

// maxResponseBytes bounds how much of a backend response is read; the
// payloads here are small JSON envelopes.
const maxResponseBytes = 1 << 20

// HTTPClient talks to the TailorCV backend over REST.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

// NewHTTPClient validates the backend base URL and builds a client with the
// given per-request timeout. An empty or unparseable URL is a configuration
// error the caller surfaces to the user.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, apperr.Configuration("backend API URL is not configured (set TAILORCV_API_URL)")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperr.Configuration("backend API URL %q is not a valid URL", baseURL)
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

type authResponse struct {
	Success      bool         `json:"success"`
	User         session.User `json:"user"`
	SessionToken string       `json:"session_token"`
	Error        string       `json:"error"`
}

type generateResponse struct {
	ResumeURL string `json:"resumeUrl"`
	Error     string `json:"error"`
}

func (c *HTTPClient) Me(ctx context.Context, token string) (session.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, "")
	if err != nil {
		return session.User{}, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return session.User{}, apperr.TransientNetwork(err, "reading backend response failed")
	}

	if resp.StatusCode != http.StatusOK {
		return session.User{}, authFailure(resp.StatusCode, body, "session verification failed")
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return session.User{}, apperr.Authentication(err, "backend returned an unreadable identity response")
	}
	if !ar.Success {
		return session.User{}, apperr.Authentication(nil, "session rejected: %s", messageOr(ar.Error, "unknown reason"))
	}
	if err := ar.User.Validate(); err != nil {
		return session.User{}, apperr.Authentication(err, "backend returned a malformed user record")
	}
	return ar.User, nil
}

func (c *HTTPClient) LoginGoogle(ctx context.Context, credential string) (session.Session, error) {
	payload, err := json.Marshal(map[string]string{"token": credential})
	if err != nil {
		return session.Session{}, fmt.Errorf("encode login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth/google", "", bytes.NewReader(payload), "application/json")
	if err != nil {
		return session.Session{}, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return session.Session{}, apperr.TransientNetwork(err, "reading backend response failed")
	}

	if resp.StatusCode != http.StatusOK {
		return session.Session{}, authFailure(resp.StatusCode, body, "sign-in failed")
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return session.Session{}, apperr.Authentication(err, "backend returned an unreadable sign-in response")
	}
	if !ar.Success || ar.SessionToken == "" {
		return session.Session{}, apperr.Authentication(nil, "sign-in rejected: %s", messageOr(ar.Error, "unknown reason"))
	}
	return session.Session{Token: ar.SessionToken, User: ar.User}, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readBody(resp.Body)
		return apperr.TransientNetwork(nil, "backend logout failed: %s", errorMessage(body, resp.StatusCode))
	}
	return nil
}

func (c *HTTPClient) GenerateResume(ctx context.Context, token string, fields map[string]string, upload *Upload) (string, error) {
	body, contentType, err := multipartBody(fields, upload)
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/generate-resume", token, body, contentType)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp.Body)
	if err != nil {
		return "", apperr.TransientNetwork(err, "reading backend response failed")
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperr.ServerSubmission(nil, "resume generation failed: %s", errorMessage(respBody, resp.StatusCode))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", apperr.ServerSubmission(err, "backend returned an unreadable generation response")
	}
	if gr.ResumeURL == "" {
		return "", apperr.ServerSubmission(nil, "resume generation failed: %s", messageOr(gr.Error, "no document reference returned"))
	}
	return gr.ResumeURL, nil
}

func (c *HTTPClient) UploadPayment(ctx context.Context, token string, fields map[string]string, upload *Upload) error {
	body, contentType, err := multipartBody(fields, upload)
	if err != nil {
		return fmt.Errorf("encode payment upload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/payment/upload", token, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := readBody(resp.Body)
		return apperr.ServerSubmission(nil, "payment upload failed: %s", errorMessage(respBody, resp.StatusCode))
	}
	return nil
}

// do issues one request with the session token attached as a bearer header.
// Transport-level failures come back as transient network errors.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.TransientNetwork(err, "backend unreachable")
	}
	return resp, nil
}

// multipartBody encodes fields plus an optional file as multipart/form-data.
func multipartBody(fields map[string]string, upload *Upload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if upload != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, upload.FieldName, upload.FileName))
		h.Set("Content-Type", upload.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(upload.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxResponseBytes))
}

// authFailure classifies a non-200 auth response: explicit rejections are
// authentication errors, everything else is a transport problem.
func authFailure(status int, body []byte, what string) error {
	msg := errorMessage(body, status)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperr.Authentication(nil, "%s: %s", what, msg)
	}
	return apperr.TransientNetwork(nil, "%s: %s", what, msg)
}

// errorMessage extracts the backend's {"error": ...} message, falling back
// to the HTTP status.
func errorMessage(body []byte, status int) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("backend responded with status %d", status)
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
