package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsNormalize(t *testing.T) {
	opts := Options{URL: "http://127.0.0.1:8080/week", OutputPath: "/tmp/week.png"}
	require.NoError(t, opts.normalize())
	assert.Equal(t, DefaultWidth, opts.Width)
	assert.Equal(t, DefaultHeight, opts.Height)
	assert.Equal(t, DefaultTimeout, opts.Timeout)

	assert.Error(t, (&Options{OutputPath: "x.png"}).normalize())
	assert.Error(t, (&Options{URL: "http://x"}).normalize())
}

func TestTasks(t *testing.T) {
	var png []byte
	opts := Options{URL: "http://x/week", OutputPath: "x.png"}
	require.NoError(t, opts.normalize())
	assert.Len(t, tasks(opts, &png), 4)

	opts.Username, opts.Password = "me", "secret"
	assert.Len(t, tasks(opts, &png), 6, "basic auth adds header actions")
}

func TestCapturePNG_ValidatesBeforeLaunching(t *testing.T) {
	err := CapturePNG(context.Background(), Options{})
	assert.EqualError(t, err, "capture: URL is required")
}
