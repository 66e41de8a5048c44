package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, 5*time.Second, logging.New(io.Discard, "error"))
	require.NoError(t, err)
	return c, srv
}

func TestNewHTTPClient_Configuration(t *testing.T) {
	log := logging.New(io.Discard, "error")

	_, err := NewHTTPClient("", time.Second, log)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	_, err = NewHTTPClient("not a url", time.Second, log)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	c, err := NewHTTPClient("https://api.example.org/", time.Second, log)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org", c.baseURL)
}

func TestMe_Success(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		io.WriteString(w, `{"success":true,"user":{"id":"u1","name":"Alice","email":"a@b.c","is_premium":true,"generation_count":4}}`)
	}))

	user, err := c.Me(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsPremium)
	assert.Equal(t, 4, user.GenerationCount)
}

func TestMe_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apperr.Kind
	}{
		{"401", http.StatusUnauthorized, `{"error":"Not authenticated"}`, apperr.KindAuthentication},
		{"success false", http.StatusOK, `{"success":false,"error":"expired"}`, apperr.KindAuthentication},
		{"malformed json", http.StatusOK, `{"success":`, apperr.KindAuthentication},
		{"missing user id", http.StatusOK, `{"success":true,"user":{"name":"x"}}`, apperr.KindAuthentication},
		{"server error", http.StatusBadGateway, `boom`, apperr.KindTransientNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			_, err := c.Me(context.Background(), "abc")
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestMe_Unreachable(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := c.Me(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransientNetwork, apperr.KindOf(err))
}

func TestLoginGoogle_Success(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/google", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"token":"raw-credential"}`, string(body))
		io.WriteString(w, `{"success":true,"session_token":"tok1","user":{"id":"u1","is_premium":false}}`)
	}))

	sess, err := c.LoginGoogle(context.Background(), "raw-credential")
	require.NoError(t, err)
	assert.Equal(t, "tok1", sess.Token)
	assert.Equal(t, "u1", sess.User.ID)
	assert.False(t, sess.User.IsPremium)
}

func TestLoginGoogle_Rejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Invalid Google token or authentication failed"}`)
	}))

	_, err := c.LoginGoogle(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Invalid Google token")
}

func TestLogout(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"success":true}`)
	}))

	require.NoError(t, c.Logout(context.Background(), "tok1"))
	assert.Equal(t, "Bearer tok1", gotAuth)
}

func TestGenerateResume_MultipartRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "staff engineer role", r.FormValue("jobDescription"))
		assert.Equal(t, "a@b.c", r.FormValue("email"))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "cv.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.7 fake", string(data))

		io.WriteString(w, `{"resumeUrl":"https://files.example.org/out.pdf"}`)
	}))

	url, err := c.GenerateResume(context.Background(), "tok1",
		map[string]string{"jobDescription": "staff engineer role", "email": "a@b.c"},
		&Upload{FieldName: "resume", FileName: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7 fake")})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.org/out.pdf", url)
}

func TestGenerateResume_ServerFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"error":"could not parse LinkedIn profile"}`)
	}))

	_, err := c.GenerateResume(context.Background(), "", map[string]string{"jobDescription": "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindServerSubmission, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "could not parse LinkedIn profile")
}

func TestGenerateResume_MissingReference(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))

	_, err := c.GenerateResume(context.Background(), "", map[string]string{"jobDescription": "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindServerSubmission, apperr.KindOf(err))
}

func TestUploadPayment(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "a@b.c", r.FormValue("email"))
		assert.NotEmpty(t, r.FormValue("timestamp"))

		_, header, err := r.FormFile("screenshot")
		require.NoError(t, err)
		assert.Equal(t, "proof.png", header.Filename)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.UploadPayment(context.Background(), "tok1",
		map[string]string{"email": "a@b.c", "timestamp": "2026-08-28T10:00:00Z"},
		&Upload{FieldName: "screenshot", FileName: "proof.png", ContentType: "image/png", Data: []byte("png-bytes")})
	require.NoError(t, err)
}

func TestUploadPayment_ServerFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"storage offline"}`)
	}))

	err := c.UploadPayment(context.Background(), "", map[string]string{"email": "a@b.c"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindServerSubmission, apperr.KindOf(err))
}
