package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ValidationFailed, "unknown bullet id")
	assert.Equal(t, "unknown bullet id", err.Error())

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, ValidationFailed, e.Code())
}

func TestWrap(t *testing.T) {
	t.Run("wraps and unwraps", func(t *testing.T) {
		inner := fmt.Errorf("disk full")
		err := Wrap(inner, Unknown, "failed to save playbook")

		assert.Equal(t, "failed to save playbook: disk full", err.Error())
		assert.Equal(t, inner, stderrors.Unwrap(err))
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ParseFailed, "ignored"))
	})
}

func TestWithFields(t *testing.T) {
	err := WithFields(New(StructuredOutputFailed, "no valid JSON"), Fields{
		"attempts": 3,
		"raw":      "not json",
	})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, 3, e.Fields()["attempts"])
	assert.Contains(t, err.Error(), "no valid JSON")
}

func TestWithFieldsMerges(t *testing.T) {
	base := WithFields(New(RoleFailed, "curator failed"), Fields{"role": "curator"})
	err := WithFields(base, Fields{"attempts": 2})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, "curator", e.Fields()["role"])
	assert.Equal(t, 2, e.Fields()["attempts"])
	assert.Equal(t, RoleFailed, e.Code())
}

func TestIsMatchesByCode(t *testing.T) {
	err := WithFields(New(ResourceNotFound, "playbook file not found"), Fields{"path": "x.json"})
	assert.True(t, stderrors.Is(err, New(ResourceNotFound, "")))
	assert.False(t, stderrors.Is(err, New(ParseFailed, "")))
}

func TestCheckContext(t *testing.T) {
	t.Run("active context", func(t *testing.T) {
		assert.NoError(t, CheckContext(context.Background(), "generate"))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := CheckContext(ctx, "generate")
		require.Error(t, err)
		assert.True(t, IsCode(err, Canceled))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ParseFailed, CodeOf(New(ParseFailed, "bad json")))
	assert.Equal(t, Unknown, CodeOf(fmt.Errorf("plain")))
}
