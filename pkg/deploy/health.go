package deploy

import (
	"context"
	"net"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/logger"
)

// WaitForTCP waits until the address accepts TCP connections, retrying with
// exponential backoff.
func WaitForTCP(ctx context.Context, addr string, attempts uint) error {
	err := retry.Do(
		func() error {
			dialer := net.Dialer{Timeout: 2 * time.Second}
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			return conn.Close()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithFields(map[string]interface{}{
				"addr":    addr,
				"attempt": n + 1,
			}).WithError(err).Debug("Service not ready, retrying")
		}),
	)
	return errors.Wrapf(err, "service at %s did not become ready", addr)
}
