package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromStore(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		kind Kind
		code Code
	}{
		{"record not found", gorm.ErrRecordNotFound, KindNotFound, CodeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), KindNotFound, CodeNotFound},
		{"deadline", context.DeadlineExceeded, KindTransient, CodeTimeout},
		{"cancelled", context.Canceled, KindTransient, CodeTimeout},
		{"unique violation", &pq.Error{Code: "23505"}, KindConflict, CodeSlugConflict},
		{"gorm duplicate", gorm.ErrDuplicatedKey, KindConflict, CodeSlugConflict},
		{"unknown", errors.New("boom"), KindFatal, CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := FromStore(tc.err, "product")
			assert.Equal(t, tc.kind, KindOf(err))
			assert.True(t, Is(err, tc.code))
		})
	}
}

func TestFromStoreKeepsTaxonomyErrors(t *testing.T) {
	orig := Conflict(CodeTaxonomyInUse, "in use")
	assert.Same(t, orig, FromStore(orig, "category"))
	assert.Nil(t, FromStore(nil, "category"))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := Dependency("ai endpoint failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DEPENDENCY_FAILED")
	assert.Equal(t, KindFatal, KindOf(cause))
}
