package core_test

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-ai/troupe/core"
)

func TestMethod_Valid(t *testing.T) {
	for _, m := range []core.Method{
		core.MethodInitialize, core.MethodListTools, core.MethodListPrompts, core.MethodCallTool,
	} {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, core.Method("describe").Valid())
	assert.False(t, core.Method("").Valid())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, core.CodeInvalidInput, core.CodeOf(core.NewError(core.CodeInvalidInput, "bad")))
	assert.Equal(t, core.CodeToolNotFound, core.CodeOf(fmt.Errorf("resolve: %w", core.ErrToolNotFound)))
	assert.Equal(t, core.CodeExecutionFailed, core.CodeOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	err := core.NewError(core.CodeUnauthorized, "user %q denied", "u-1")
	assert.Equal(t, `UNAUTHORIZED: user "u-1" denied`, err.Error())
}

func TestNewID_IsUUID(t *testing.T) {
	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	id := core.NewID()
	assert.Regexp(t, uuidRe, id)
	assert.NotEqual(t, id, core.NewID())
}

func TestNewEventID_IsSortable(t *testing.T) {
	first := core.NewEventID()
	time.Sleep(2 * time.Millisecond)
	second := core.NewEventID()
	require.Len(t, first, 26)
	// ULID timestamps make later ids sort lexicographically after earlier ones.
	assert.Less(t, first, second)
}

func TestFailCarriesStructuredError(t *testing.T) {
	resp := core.Fail(core.CodeToolNotFound, "tool %q is not registered", "x")
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Err)
	assert.Equal(t, core.CodeToolNotFound, resp.Err.Code)
	assert.Nil(t, resp.Data)
}
