package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("snapshot not found")
	err := WrapErrorf(orig, ErrNotFound, "no flood data for %s", "zamboanga")

	var serverErr *Error
	assert.True(t, errors.As(err, &serverErr))
	assert.Equal(t, ErrNotFound, serverErr.Code())
	assert.Equal(t, "no flood data for zamboanga", serverErr.Message())
	assert.Equal(t, "no flood data for zamboanga: snapshot not found", err.Error())
	assert.ErrorIs(t, err, orig)

	plain := NewErrorf(ErrBadParamInput, "bad radius")
	assert.Equal(t, "bad radius", plain.Error())
	assert.Nil(t, errors.Unwrap(plain))
}
