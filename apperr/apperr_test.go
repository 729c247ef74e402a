package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        http.StatusBadRequest,
		KindUnauthenticated:   http.StatusUnauthorized,
		KindInvalidToken:      http.StatusForbidden,
		KindForbidden:         http.StatusForbidden,
		KindNotFound:          http.StatusNotFound,
		KindConflict:          http.StatusConflict,
		KindInvalidTransition: http.StatusUnprocessableEntity,
		KindRateLimited:       http.StatusTooManyRequests,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading order: %w", NotFound("order not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("failed to save order", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save order: disk full", err.Error())
}

func TestWithDetail(t *testing.T) {
	err := InvalidTransition("invalid state transition", nil).WithDetail("current", "delivered")
	assert.Equal(t, "delivered", err.Details["current"])
}
