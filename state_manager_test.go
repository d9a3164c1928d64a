package nanitws

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *fakeTransport) {
	ft := newFakeTransport()
	return NewManager(discardLogger(), testConfig(), ft.Factory()), ft
}

func TestManager_StatusSequence(t *testing.T) {
	m, ft := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statuses := m.ObserveStatus(ctx)
	caches := m.ObserveCache(ctx)
	assert.Equal(t, StatusIdle(), recv(t, statuses))
	assert.Nil(t, recv(t, caches))

	results, err := m.ConnectAndListen(ctx, testEndpoint)
	require.NoError(t, err)
	conn := recv(t, ft.Built())

	assert.Equal(t, StatusConnecting(), recv(t, statuses))
	assert.Equal(t, StatusConnected(), recv(t, statuses))

	require.True(t, conn.Push(newTextNotification(milaJSON)))
	res := recv(t, results)
	require.True(t, res.Ok())
	assert.Equal(t, milaRecord(), res.Record)
	assert.Equal(t, StatusMessageReceived(), recv(t, statuses))

	cached := recv(t, caches)
	require.NotNil(t, cached)
	assert.Equal(t, milaRecord(), *cached)

	require.True(t, conn.Push(newClosedNotification(1000, "bye")))
	assert.Equal(t, StatusIdle(), recv(t, statuses))
	assert.Nil(t, recv(t, caches))

	assert.Empty(t, drain(t, results))
	_, ok := m.Cached()
	assert.False(t, ok)
}

func TestManager_DecodeErrorKeepsConnectionAndCache(t *testing.T) {
	m, ft := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := m.ConnectAndListen(ctx, testEndpoint)
	require.NoError(t, err)
	conn := recv(t, ft.Built())

	require.True(t, conn.Push(newTextNotification(milaJSON)))
	recv(t, results)

	require.True(t, conn.Push(newTextNotification(`{"name":`)))
	require.Eventually(t, func() bool { return m.Status().IsError() }, testTimeout, 5*time.Millisecond)
	assert.True(t, strings.HasPrefix(m.Status().Message, "failed to parse birthday data"))

	cached, ok := m.Cached()
	require.True(t, ok)
	assert.Equal(t, milaRecord(), cached)

	closed, _, _ := conn.Closed()
	assert.False(t, closed)

	require.True(t, conn.Push(newTextNotification(noaJSON)))
	res := recv(t, results)
	assert.Equal(t, "Noa", res.Record.Name)
	assert.Equal(t, ThemeElephant, res.Record.Theme)
	assert.Equal(t, StatusMessageReceived(), m.Status())
}

func TestManager_FailureKeepsCacheAndReportsTransportError(t *testing.T) {
	m, ft := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := m.ConnectAndListen(ctx, testEndpoint)
	require.NoError(t, err)
	conn := recv(t, ft.Built())

	require.True(t, conn.Push(newTextNotification(milaJSON)))
	recv(t, results)

	cause := WrapTransportError(errors.Wrap(ErrConnectionClosed, "reset by peer"), testEndpoint.URL())
	require.True(t, conn.Push(newFailedNotification(cause)))

	res := recv(t, results)
	require.False(t, res.Ok())
	var terr *TransportError
	require.True(t, errors.As(res.Err, &terr))
	assert.Equal(t, testEndpoint.URL(), terr.URL())
	assert.True(t, errors.Is(res.Err, ErrConnectionClosed))

	assert.Empty(t, drain(t, results))

	assert.Equal(t, StatusError(cause.Error()), m.Status())
	cached, ok := m.Cached()
	require.True(t, ok)
	assert.Equal(t, milaRecord(), cached)
}

func TestManager_DialFailure(t *testing.T) {
	m, ft := newTestManager()
	ft.OpenFunc = func(context.Context) error {
		return WrapTransportError(errors.Wrap(ErrCannotConnect, "connection refused"), testEndpoint.URL())
	}

	results, err := m.ConnectAndListen(context.Background(), testEndpoint)
	require.NoError(t, err)

	res := recv(t, results)
	assert.True(t, errors.Is(res.Err, ErrCannotConnect))
	assert.Empty(t, drain(t, results))
	assert.True(t, m.Status().IsError())
	require.Eventually(t, func() bool { return !m.Listening() }, testTimeout, 5*time.Millisecond)
}

func TestManager_DisconnectIsIdempotent(t *testing.T) {
	m, ft := newTestManager()

	// Nothing running yet.
	m.Disconnect()
	assert.Equal(t, StatusIdle(), m.Status())

	results, err := m.ConnectAndListen(context.Background(), testEndpoint)
	require.NoError(t, err)
	conn := recv(t, ft.Built())

	require.True(t, conn.Push(newTextNotification(milaJSON)))
	recv(t, results)
	assert.True(t, m.Listening())

	m.Disconnect()

	closed, code, reason := conn.Closed()
	require.True(t, closed)
	assert.Equal(t, NormalClosure, code)
	assert.Equal(t, "Manual disconnect", reason)

	assert.Equal(t, StatusIdle(), m.Status())
	_, ok := m.Cached()
	assert.False(t, ok)
	assert.False(t, m.Listening())
	assert.Empty(t, drain(t, results))

	m.Disconnect()
	assert.Equal(t, StatusIdle(), m.Status())
}

func TestManager_SingleFlight(t *testing.T) {
	m, ft := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := m.ConnectAndListen(ctx, testEndpoint)
	require.NoError(t, err)
	firstConn := recv(t, ft.Built())

	other := Endpoint{Host: "127.0.0.1", Port: 10}
	second, err := m.ConnectAndListen(ctx, other)
	require.NoError(t, err)

	// The previous transport is closed before the new call returns.
	closed, _, reason := firstConn.Closed()
	assert.True(t, closed)
	assert.Equal(t, "Client closing", reason)
	assert.Empty(t, drain(t, first))

	secondConn := recv(t, ft.Built())
	assert.Equal(t, other, secondConn.endpoint)
	assert.True(t, m.Listening())

	require.True(t, secondConn.Push(newTextNotification(milaJSON)))
	assert.Equal(t, milaRecord(), recv(t, second).Record)

	live := 0
	for _, c := range ft.Conns() {
		if closed, _, _ := c.Closed(); !closed {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func TestManager_CallerCancelStopsListening(t *testing.T) {
	m, ft := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())

	results, err := m.ConnectAndListen(ctx, testEndpoint)
	require.NoError(t, err)
	conn := recv(t, ft.Built())

	require.True(t, conn.Push(newTextNotification(milaJSON)))
	assert.Equal(t, milaRecord(), recv(t, results).Record)
	assert.Equal(t, StatusMessageReceived(), m.Status())

	cancel()
	assert.Empty(t, drain(t, results))

	require.Eventually(t, func() bool {
		closed, _, _ := conn.Closed()
		return closed
	}, testTimeout, 5*time.Millisecond)
	assert.False(t, conn.Push(newTextNotification(milaJSON)))

	require.Eventually(t, func() bool { return !m.Listening() }, testTimeout, 5*time.Millisecond)
	assert.Equal(t, StatusIdle(), m.Status())
	_, ok := m.Cached()
	assert.False(t, ok)
}

func TestManager_StateAdvancesWithoutReadingResults(t *testing.T) {
	m, ft := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := m.ConnectAndListen(ctx, testEndpoint)
	require.NoError(t, err)
	conn := recv(t, ft.Built())

	require.True(t, conn.Push(newTextNotification(milaJSON)))
	require.True(t, conn.Push(newClosedNotification(1000, "bye")))

	require.Eventually(t, func() bool { return !m.Listening() }, testTimeout, 5*time.Millisecond)
	assert.Equal(t, StatusIdle(), m.Status())
	_, ok := m.Cached()
	assert.False(t, ok)

	got := drain(t, results)
	require.Len(t, got, 1)
	assert.Equal(t, milaRecord(), got[0].Record)
}
