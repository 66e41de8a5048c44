package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"configuration", Configuration("missing client id"), KindConfiguration},
		{"authentication", Authentication(errors.New("401"), "token rejected"), KindAuthentication},
		{"transient", TransientNetwork(errors.New("dial"), "backend unreachable"), KindTransientNetwork},
		{"validation", Validation("file too large"), KindValidation},
		{"submission", ServerSubmission(errors.New("500"), "generation failed"), KindServerSubmission},
		{"wrapped", fmt.Errorf("outer: %w", Validation("inner")), KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransientNetwork(cause, "backend unreachable")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "backend unreachable", err.Error())
}

func TestAs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Authentication(nil, "expired"))

	ae := As(err)
	require.NotNil(t, ae)
	assert.Equal(t, KindAuthentication, ae.Kind)

	assert.Nil(t, As(errors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "configuration", KindConfiguration.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
