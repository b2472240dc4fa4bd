package schemaforge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadError(t *testing.T) {
	t.Run("matches sentinel", func(t *testing.T) {
		err := NewLoadError("entities/users.json", "parsing schema file", nil)

		assert.True(t, errors.Is(err, ErrLoadFailed))
		assert.True(t, IsLoadError(err))
		assert.False(t, IsWatchError(err))
	})

	t.Run("includes path and line", func(t *testing.T) {
		err := NewLoadError("entities/users.json", "bad token", nil)
		err.Line = 7

		assert.Contains(t, err.Error(), "entities/users.json:7")
		assert.Contains(t, err.Error(), "bad token")
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewLoadError("app.json", "reading schema file", cause)

		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("reload: %w", NewLoadError("app.json", "missing app schema", nil))

		assert.True(t, IsLoadError(err))
		assert.True(t, errors.Is(err, ErrLoadFailed))
	})
}

func TestWatchError(t *testing.T) {
	t.Run("matches sentinel", func(t *testing.T) {
		err := NewWatchError("load", "schema reload failed", nil)

		assert.True(t, errors.Is(err, ErrWatchFailed))
		assert.True(t, IsWatchError(err))
		assert.False(t, IsLoadError(err))
	})

	t.Run("includes operation", func(t *testing.T) {
		err := NewWatchError("diff", "comparison panicked", nil)

		assert.Contains(t, err.Error(), "during diff")
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("watch limit reached")
		err := NewWatchError("fsnotify", "watch error", cause)

		assert.True(t, errors.Is(err, cause))
	})
}
