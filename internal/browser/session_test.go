package browser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobilindo-e2e/internal/browser"
	"github.com/roach88/mobilindo-e2e/internal/testutil"
)

func TestAcquire_OpensDriverBrowserContextPage(t *testing.T) {
	fake := testutil.NewFake(nil)

	s, err := browser.Acquire(fake.Factory(), browser.SessionOptions{
		Launch: browser.LaunchOptions{Headless: true},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{
		"start driver",
		"launch headless=true",
		"new context timeout=0s",
		"new page",
	}, fake.Calls())

	p, err := s.Page()
	require.NoError(t, err)
	assert.Equal(t, "about:blank", p.URL())
}

func TestSession_CloseReleasesInReverseOrder(t *testing.T) {
	fake := testutil.NewFake(nil)
	s, err := browser.Acquire(fake.Factory(), browser.SessionOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Close())

	calls := fake.Calls()
	assert.Equal(t, []string{"close page", "close context", "close browser", "stop driver"}, calls[len(calls)-4:])
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	fake := testutil.NewFake(nil)
	s, err := browser.Acquire(fake.Factory(), browser.SessionOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, fake.Count("stop driver"))
	assert.Equal(t, 1, fake.Count("close browser"))

	_, err = s.Page()
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
}

func TestAcquire_LaunchFailureStopsDriver(t *testing.T) {
	fake := testutil.NewFake(nil)
	fake.LaunchErr = errors.New("chromium missing")

	s, err := browser.Acquire(fake.Factory(), browser.SessionOptions{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "launch browser: chromium missing")
	assert.Equal(t, 1, fake.Count("stop driver"))
	assert.Zero(t, fake.Count("close browser"))
}

func TestAcquire_PageFailureReleasesContextAndBrowser(t *testing.T) {
	fake := testutil.NewFake(nil)
	fake.PageErr = errors.New("target closed")

	_, err := browser.Acquire(fake.Factory(), browser.SessionOptions{})
	require.Error(t, err)

	calls := fake.Calls()
	assert.Equal(t, []string{"close context", "close browser", "stop driver"}, calls[len(calls)-3:])
}

func TestSession_CloseJoinsStopError(t *testing.T) {
	fake := testutil.NewFake(nil)
	fake.StopErr = errors.New("driver gone")
	s, err := browser.Acquire(fake.Factory(), browser.SessionOptions{})
	require.NoError(t, err)

	err = s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop driver: driver gone")
}
