package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"network", NewNetworkError("geocode", eris.New("boom")), KindNetwork},
		{"not found", NewNotFoundError("geocode", "no candidates"), KindNotFound},
		{"parse", NewParseError("enrich", eris.New("bad json")), KindParse},
		{"validation", NewValidationError("toggle", eris.New("nope")), KindValidation},
		{"wrapped", eris.Wrap(NewParseError("places", eris.New("x")), "outer"), KindParse},
		{"uncategorised", errors.New("plain"), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorIsSentinel(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("geocode", "no candidates")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Contains(t, err.Error(), "geocode")
	assert.Contains(t, err.Error(), "no candidates")
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewNetworkError("places", cause)
	assert.ErrorIs(t, err, cause)
}
