package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	err := Wrap(NewUserError(ErrSunday, "use buy"), "price")

	msg, ok := UserMessage(err)
	require.True(t, ok)
	assert.Equal(t, "use buy", msg)
	assert.True(t, Is(err, ErrSunday))
	assert.False(t, Is(err, ErrUnknownDay))

	_, ok = UserMessage(errors.New("disk full"))
	assert.False(t, ok)
}

func TestMarkStorage(t *testing.T) {
	err := Mark(Wrap(errors.New("permission denied"), "write record"), ErrStorage)
	assert.True(t, Is(err, ErrStorage))
	assert.Contains(t, err.Error(), "write record")

	assert.Equal(t, ErrStorage, Mark(nil, ErrStorage))
}

func TestCombine(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")

	assert.Nil(t, Combine(nil, nil))
	assert.Equal(t, a, Combine(a, nil))
	assert.Equal(t, b, Combine(nil, b))
	assert.True(t, Is(Combine(a, b), a))
}

func TestExtractStackLines(t *testing.T) {
	assert.Nil(t, ExtractStackLines(nil, 5))
	lines := ExtractStackLines(New("boom"), 3)
	require.LessOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "boom")
}
