package generrors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesSentinelForCode(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("stage: %w", Unresolved("#/definitions/Missing", "#/definitions/Pet"))

	assert.ErrorIs(t, err, ErrUnresolvedReference)
	assert.NotErrorIs(t, err, ErrWriteFailure)
	assert.Equal(t, UnresolvedReference, CodeOf(err))

	var ge *Error
	if assert.ErrorAs(t, err, &ge) {
		assert.Equal(t, "#/definitions/Missing", ge.Pointer)
		assert.Equal(t, "#/definitions/Pet", ge.Location)
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	t.Parallel()
	err := Wrap(WriteFailure, os.ErrPermission, "write %s", "out/index.ts")

	assert.ErrorIs(t, err, ErrWriteFailure)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, "write out/index.ts", err.Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}
