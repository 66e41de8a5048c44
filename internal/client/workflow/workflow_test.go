package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
)

func paymentPolicy() FilePolicy {
	return FilePolicy{AllowedMIMEPrefixes: []string{"image/"}, MaxSizeBytes: 5 << 20}
}

func newWorkflow(t *testing.T, cfg Config) *Workflow {
	t.Helper()
	if cfg.Submit == nil {
		cfg.Submit = func(context.Context, map[string]string, *File) (Result, error) {
			return Result{}, nil
		}
	}
	w, err := New(cfg)
	require.NoError(t, err)
	return w
}

func TestNew_RequiresSubmit(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestFilePolicy_Check(t *testing.T) {
	policy := paymentPolicy()

	tests := []struct {
		name string
		file File
		ok   bool
	}{
		{"4MB png accepted", File{Name: "proof.png", MIMEType: "image/png", Size: 4 << 20}, true},
		{"6MB image rejected", File{Name: "proof.jpg", MIMEType: "image/jpeg", Size: 6 << 20}, false},
		{"pdf rejected", File{Name: "doc.pdf", MIMEType: "application/pdf", Size: 1 << 20}, false},
		{"empty rejected", File{Name: "empty.png", MIMEType: "image/png", Size: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check(tt.file)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			}
		})
	}
}

func TestSetFile_ViolationKeepsState(t *testing.T) {
	calls := 0
	w := newWorkflow(t, Config{
		FilePolicy:  paymentPolicy(),
		RequireFile: true,
		Submit: func(context.Context, map[string]string, *File) (Result, error) {
			calls++
			return Result{}, nil
		},
	})

	err := w.SetFile(File{Name: "big.png", MIMEType: "image/png", Size: 6 << 20})
	require.Error(t, err)
	assert.Equal(t, StatusIdle, w.Status())
	assert.False(t, w.HasFile())
	assert.Error(t, w.Err())

	// Submitting without a valid file never reaches the network.
	_, err = w.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, calls)
}

func TestSubmit_RequiredFieldsValidated(t *testing.T) {
	calls := 0
	w := newWorkflow(t, Config{
		FieldRules: map[string]string{
			"jobDescription": "required",
			"email":          "omitempty,email",
		},
		Submit: func(context.Context, map[string]string, *File) (Result, error) {
			calls++
			return Result{Reference: "ref"}, nil
		},
	})

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, calls)

	require.NoError(t, w.SetField("jobDescription", "staff role"))
	require.NoError(t, w.SetField("email", "not-an-email"))
	_, err = w.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, calls)

	require.NoError(t, w.SetField("email", "a@b.c"))
	res, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ref", res.Reference)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusSucceeded, w.Status())
}

func TestSubmit_SingleInFlight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	w := newWorkflow(t, Config{
		FieldRules: map[string]string{"f": "required"},
		Submit: func(context.Context, map[string]string, *File) (Result, error) {
			calls.Add(1)
			close(started)
			<-release
			return Result{Reference: "ok"}, nil
		},
	})
	require.NoError(t, w.SetField("f", "v"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := w.Submit(context.Background())
		assert.NoError(t, err)
	}()

	<-started
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "exactly one network call")
	assert.Equal(t, StatusSucceeded, w.Status())
}

func TestSubmit_FailedIsRetryable(t *testing.T) {
	fail := true
	w := newWorkflow(t, Config{
		FieldRules: map[string]string{"f": "required"},
		Submit: func(context.Context, map[string]string, *File) (Result, error) {
			if fail {
				return Result{}, apperr.ServerSubmission(nil, "backend says no")
			}
			return Result{Reference: "ok"}, nil
		},
	})
	require.NoError(t, w.SetField("f", "v"))

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, w.Status())
	assert.Error(t, w.Err())

	// Re-editing moves Failed back to Idle.
	fail = false
	require.NoError(t, w.SetField("f", "v2"))
	assert.Equal(t, StatusIdle, w.Status())
	assert.NoError(t, w.Err())

	res, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reference)
}

func TestSubmit_NoResubmitAfterSuccess(t *testing.T) {
	w := newWorkflow(t, Config{
		FieldRules: map[string]string{"f": "required"},
	})
	require.NoError(t, w.SetField("f", "v"))

	_, err := w.Submit(context.Background())
	require.NoError(t, err)

	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDone)
	assert.ErrorIs(t, w.SetField("f", "again"), ErrDone)
	assert.Equal(t, StatusSucceeded, w.Status())
}

func TestSubmit_StaleResolutionDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	w := newWorkflow(t, Config{
		FieldRules: map[string]string{"f": "required"},
		Submit: func(context.Context, map[string]string, *File) (Result, error) {
			close(started)
			<-release
			return Result{Reference: "late"}, nil
		},
	})
	require.NoError(t, w.SetField("f", "v"))

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()

	<-started
	w.Close()
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not resolve")
	}

	// The late result never mutated the discarded instance.
	assert.Nil(t, w.Result())

	// Closed instances reject everything, repeatedly.
	w.Close()
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.SetField("f", "x"), ErrClosed)
}

func TestSubmit_SnapshotsFields(t *testing.T) {
	var got map[string]string
	w := newWorkflow(t, Config{
		FieldRules: map[string]string{"f": "required"},
		Submit: func(_ context.Context, fields map[string]string, _ *File) (Result, error) {
			got = fields
			return Result{}, errors.New("fail to stay editable")
		},
	})
	require.NoError(t, w.SetField("f", "first"))

	_, _ = w.Submit(context.Background())
	require.NoError(t, w.SetField("f", "second"))

	assert.Equal(t, "first", got["f"], "collaborator sees the snapshot, not later edits")
}

func TestSetFile_AttachesValidatedFile(t *testing.T) {
	var gotFile *File
	w := newWorkflow(t, Config{
		FilePolicy:  paymentPolicy(),
		RequireFile: true,
		FieldRules:  map[string]string{"email": "required,email"},
		Submit: func(_ context.Context, _ map[string]string, f *File) (Result, error) {
			gotFile = f
			return Result{}, nil
		},
	})

	require.NoError(t, w.SetField("email", "a@b.c"))
	require.NoError(t, w.SetFile(File{Name: "proof.png", MIMEType: "image/png", Size: 4 << 20, Data: []byte("png")}))
	assert.True(t, w.HasFile())

	_, err := w.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, gotFile)
	assert.Equal(t, "proof.png", gotFile.Name)
}
