package deploy

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForTCP(t *testing.T) {
	ctx := context.Background()

	t.Run("listening service", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer listener.Close()

		assert.NoError(t, WaitForTCP(ctx, listener.Addr().String(), 3))
	})

	t.Run("unreachable service", func(t *testing.T) {
		// Grab a free port and close it again so nothing listens there.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		err = WaitForTCP(ctx, addr, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not become ready")
	})
}

func TestPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port

	inUse, err := PortInUse(port)
	require.NoError(t, err)
	assert.True(t, inUse)
}
