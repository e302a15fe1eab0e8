package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindBusinessRule, KindOf(BusinessRule("forbidden")))
	assert.Equal(t, KindAuth, KindOf(Unauthorized("who")))
	assert.Equal(t, KindInternal, KindOf(errors.New("untyped")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFound("universe missing")
	outer := fmt.Errorf("loading: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(outer))
	assert.True(t, IsKind(outer, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindPersistence, cause, "saving universe %s", "abc")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "saving universe abc")
	assert.Contains(t, err.Error(), "connection reset")
}
