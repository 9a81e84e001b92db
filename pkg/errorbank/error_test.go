package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	testCases := []struct {
		status   int
		kind     Kind
		httpCode int
	}{
		{http.StatusBadRequest, KindBadRequest, http.StatusBadRequest},
		{http.StatusNotFound, KindNotFound, http.StatusNotFound},
		{http.StatusConflict, KindConflict, http.StatusConflict},
		{http.StatusUnprocessableEntity, KindUnprocessableEntity, http.StatusUnprocessableEntity},
		{http.StatusServiceUnavailable, KindUnavailable, http.StatusServiceUnavailable},
		{http.StatusInternalServerError, KindUpstream, http.StatusBadGateway},
		{http.StatusTeapot, KindUpstream, http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("status %d", tc.status), func(t *testing.T) {
			err := FromStatus(tc.status, "boom")
			assert.Equal(t, tc.kind, err.Kind())
			assert.Equal(t, tc.httpCode, err.StatusCode())
			assert.Equal(t, "boom", err.Message())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("socket closed")
	appErr := From(fmt.Errorf("list: %w", cause))

	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, From(nil))
}

func TestFromKeepsAppErrors(t *testing.T) {
	original := NotFound("order not found")
	assert.Same(t, original, From(fmt.Errorf("wrapped: %w", original)))
}

func TestMessageOr(t *testing.T) {
	assert.Equal(t, "Serial number already exists", MessageOr(Conflict("Serial number already exists"), "fallback"))
	assert.Equal(t, "fallback", MessageOr(New(KindUpstream, ""), "fallback"))
	assert.Equal(t, "fallback", MessageOr(errors.New("raw"), "fallback"))
}

func TestErrorIncludesCause(t *testing.T) {
	err := Unavailable("Failed to load orders.", WithCause(errors.New("dial tcp: refused")))
	assert.Equal(t, "Failed to load orders.: dial tcp: refused", err.Error())
	assert.Equal(t, "Failed to load orders.", err.Message())
}
