// Package workflow implements the generic state machine behind every
// multi-field, optionally file-bearing submission the client makes: record
// fields, validate a file synchronously, then issue exactly one network
// call per attempt and settle into Succeeded or Failed.
//
// A Workflow instance owns its request state exclusively; nothing is shared
// between instances. Retrying after a failure is always user-initiated:
// editing a field moves Failed back to Idle, and Submit may be called again.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
)

// Status is the lifecycle position of one submission attempt. It only moves
// forward, except for the user-initiated Failed → Idle re-edit.
type Status int

const (
	StatusIdle Status = iota
	StatusValidating
	StatusSubmitting
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Protocol-misuse errors, matched with errors.Is.
var (
	// ErrInFlight rejects a Submit while another one is still running.
	ErrInFlight = errors.New("a submission is already in flight")

	// ErrClosed rejects operations on a discarded instance.
	ErrClosed = errors.New("workflow instance is closed")

	// ErrDone rejects edits and resubmits after success.
	ErrDone = errors.New("workflow already succeeded")

	// ErrStale marks a resolution that arrived after the instance was
	// discarded; its result was dropped.
	ErrStale = errors.New("submission resolved after the workflow was discarded")
)

// File is an in-memory upload candidate. A File is only ever stored on the
// workflow after it passed the file policy.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// FilePolicy is the client-side gate a file must pass before it can be
// attached: its MIME type must carry one of the allowed prefixes and its
// size must not exceed MaxSizeBytes.
type FilePolicy struct {
	AllowedMIMEPrefixes []string
	MaxSizeBytes        int64
}

// Check validates f against the policy. Violations are validation errors;
// they never reach the network.
func (p FilePolicy) Check(f File) error {
	if f.Size <= 0 {
		return apperr.Validation("file %q is empty", f.Name)
	}
	if p.MaxSizeBytes > 0 && f.Size > p.MaxSizeBytes {
		return apperr.Validation("file %q is %d bytes, limit is %d", f.Name, f.Size, p.MaxSizeBytes)
	}
	if len(p.AllowedMIMEPrefixes) > 0 {
		ok := false
		for _, prefix := range p.AllowedMIMEPrefixes {
			if strings.HasPrefix(f.MIMEType, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			return apperr.Validation("file %q has type %q, expected %s",
				f.Name, f.MIMEType, strings.Join(p.AllowedMIMEPrefixes, " or "))
		}
	}
	return nil
}

// Result is the payload of a successful submission, e.g. the download
// reference of a generated document.
type Result struct {
	Reference string
}

// SubmitFunc is the network collaborator: it receives a snapshot of the
// fields and the validated file and performs the actual call.
type SubmitFunc func(ctx context.Context, fields map[string]string, file *File) (Result, error)

// Config parameterizes a Workflow.
type Config struct {
	// FieldRules maps field names to go-playground/validator tags, e.g.
	// "required" or "omitempty,email". Every named field is checked on
	// Submit.
	FieldRules map[string]string

	// RequireFile makes Submit refuse to run without an attached file.
	RequireFile bool

	// FilePolicy gates SetFile.
	FilePolicy FilePolicy

	// Submit performs the network call. Required.
	Submit SubmitFunc
}

// Workflow is one submission state machine instance.
type Workflow struct {
	mu       sync.Mutex
	cfg      Config
	validate *validator.Validate

	fields  map[string]string
	file    *File
	status  Status
	lastErr error
	result  *Result

	// attempt is the staleness token: a resolution only applies if no
	// newer attempt started and the instance wasn't closed meanwhile.
	attempt uint64
	closed  bool
}

// New builds a Workflow from cfg.
func New(cfg Config) (*Workflow, error) {
	if cfg.Submit == nil {
		return nil, errors.New("workflow: submit collaborator is required")
	}
	return &Workflow{
		cfg:      cfg,
		validate: validator.New(),
		fields:   make(map[string]string),
	}, nil
}

// SetField records a field value. Editing is allowed while Idle or Failed;
// editing a Failed workflow returns it to Idle.
func (w *Workflow) SetField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editableLocked(); err != nil {
		return err
	}
	if w.status == StatusFailed {
		w.status = StatusIdle
		w.lastErr = nil
	}
	w.fields[name] = value
	return nil
}

// SetFile validates f against the file policy synchronously. On violation
// the workflow keeps its current state and the validation error is both
// returned and retained for display; on success the file is recorded and a
// Failed workflow returns to Idle.
func (w *Workflow) SetFile(f File) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editableLocked(); err != nil {
		return err
	}
	if err := w.cfg.FilePolicy.Check(f); err != nil {
		w.lastErr = err
		return err
	}
	if w.status == StatusFailed {
		w.status = StatusIdle
	}
	w.file = &f
	w.lastErr = nil
	return nil
}

// Submit re-validates everything, issues exactly one network call, and
// settles into Succeeded or Failed. A second Submit while one is in flight
// is rejected with ErrInFlight; a resolution arriving after Close is
// dropped and reported as ErrStale.
func (w *Workflow) Submit(ctx context.Context) (Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrClosed
	}
	switch w.status {
	case StatusSubmitting, StatusValidating:
		w.mu.Unlock()
		return Result{}, ErrInFlight
	case StatusSucceeded:
		w.mu.Unlock()
		return Result{}, ErrDone
	}

	// The caller normally disables the action on invalid input; this is
	// the defensive re-check.
	w.status = StatusValidating
	if err := w.validateLocked(); err != nil {
		w.status = StatusIdle
		w.lastErr = err
		w.mu.Unlock()
		return Result{}, err
	}

	w.status = StatusSubmitting
	w.attempt++
	attempt := w.attempt

	fields := make(map[string]string, len(w.fields))
	for k, v := range w.fields {
		fields[k] = v
	}
	file := w.file
	w.mu.Unlock()

	res, err := w.cfg.Submit(ctx, fields, file)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || attempt != w.attempt {
		return Result{}, ErrStale
	}
	if err != nil {
		w.status = StatusFailed
		w.lastErr = err
		return Result{}, err
	}
	w.status = StatusSucceeded
	w.result = &res
	w.lastErr = nil
	return res, nil
}

// Close discards the instance. Any in-flight resolution is dropped instead
// of mutating state. Safe to call multiple times.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.attempt++
}

// Status returns the current lifecycle position.
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Err returns the retained validation or submission error, if any.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Result returns the success payload, or nil before success.
func (w *Workflow) Result() *Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return nil
	}
	cp := *w.result
	return &cp
}

// Field returns the recorded value for name.
func (w *Workflow) Field(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fields[name]
}

// HasFile reports whether a validated file is attached.
func (w *Workflow) HasFile() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file != nil
}

func (w *Workflow) editableLocked() error {
	if w.closed {
		return ErrClosed
	}
	switch w.status {
	case StatusSubmitting, StatusValidating:
		return ErrInFlight
	case StatusSucceeded:
		return ErrDone
	}
	return nil
}

func (w *Workflow) validateLocked() error {
	for name, tag := range w.cfg.FieldRules {
		if err := w.validate.Var(w.fields[name], tag); err != nil {
			return apperr.Validation("field %q is missing or invalid", name)
		}
	}
	if w.cfg.RequireFile && w.file == nil {
		return apperr.Validation("a file is required for this submission")
	}
	return nil
}
