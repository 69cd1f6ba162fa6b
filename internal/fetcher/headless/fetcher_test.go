package headless

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNegativeParallel(t *testing.T) {
	t.Parallel()

	_, err := New(Config{MaxParallel: -1})
	require.Error(t, err)
}

func TestNewDefaultsNavigationTimeout(t *testing.T) {
	t.Parallel()

	f, err := New(Config{})
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, 45*time.Second, f.cfg.NavigationTimeout)
}

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	f, err := New(Config{MaxParallel: 1})
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.acquire(context.Background()))

	// Slot is taken; a second acquire should block until ctx expires.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, f.acquire(ctx))

	f.release()
	require.NoError(t, f.acquire(context.Background()))
	f.release()
}

func TestResponseMetaCapturesDocumentOnly(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeImage,
		Response: &network.Response{Status: 404, URL: "https://fsbo.com/logo.png"},
	})
	status, url := meta.snapshot()
	require.Zero(t, status)
	require.Empty(t, url)

	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 200, URL: "https://fsbo.com/listings"},
	})
	status, url = meta.snapshot()
	require.Equal(t, 200, status)
	require.Equal(t, "https://fsbo.com/listings", url)
}
