package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

func TestRegisterValidation(t *testing.T) {
	// Validation runs before any query, so no pool is needed.
	s := NewStore(nil)

	_, err := s.Register(context.Background(), "ab", "longenoughpassword")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Register(context.Background(), "tycho", "short")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
