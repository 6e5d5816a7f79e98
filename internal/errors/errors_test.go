package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = New("sentinel")

func TestWrapKeepsIdentity(t *testing.T) {
	t.Parallel()

	err := Wrapf(errSentinel, "loading %s", "ffi.yaml")
	assert.True(t, Is(err, errSentinel))
	assert.Contains(t, err.Error(), "loading ffi.yaml")
	assert.Contains(t, err.Error(), "sentinel")
}

func TestHints(t *testing.T) {
	t.Parallel()

	err := WithHint(errSentinel, "declare the type under opaque_types")
	assert.Equal(t, []string{"declare the type under opaque_types"}, GetAllHints(err))
	assert.Equal(t, "sentinel", err.Error())
}
