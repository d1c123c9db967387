package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentcore/runtime/apperr"
)

func TestValidateTransitionAllowsLegalMoves(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusPendingActivate, StatusActive},
		{StatusActive, StatusPaused},
		{StatusPaused, StatusActive},
		{StatusActive, StatusCanceled},
		{StatusPaused, StatusCanceled},
	}
	for _, c := range cases {
		assert.NoError(t, ValidateTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestValidateTransitionRejectsIllegalMoves(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusPendingActivate, StatusPaused},
		{StatusPendingActivate, StatusCanceled},
		{StatusCanceled, StatusActive},
		{StatusCanceled, StatusPaused},
	}
	for _, c := range cases {
		err := ValidateTransition(c.from, c.to)
		assert.Error(t, err, "%s -> %s", c.from, c.to)
		assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	}
}

func TestValidateTransitionAllowsNoOpSameStatus(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusActive, StatusActive))
}
