package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("amount", "must be positive")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("recipe %d not found", 7)))
	assert.Equal(t, KindConflict, KindOf(Conflict("already added")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("not the author")))
	assert.Equal(t, KindEmpty, KindOf(Empty("shopping cart is empty")))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("saving recipe: %w", Conflict("duplicate ingredient"))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestFromPG(t *testing.T) {
	tests := []struct {
		code string
		want Kind
	}{
		{"23505", KindConflict},
		{"23503", KindNotFound},
		{"23514", KindValidation},
		{"57014", KindInternal},
	}
	for _, tt := range tests {
		err := FromPG(&pq.Error{Code: pq.ErrorCode(tt.code)}, "insert failed")
		assert.Equal(t, tt.want, KindOf(err), "code %s", tt.code)
	}
}

func TestFromPGNonDriverError(t *testing.T) {
	err := FromPG(errors.New("broken pipe"), "insert failed")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("exec: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("not a pq error")))
}
