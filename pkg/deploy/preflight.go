package deploy

import (
	"context"

	"github.com/pkg/errors"
	gopsutilnet "github.com/shirou/gopsutil/v4/net"

	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/presenter"
)

// PortInUse reports whether a local TCP port is already bound
func PortInUse(port int) (bool, error) {
	connections, err := gopsutilnet.Connections("tcp")
	if err != nil {
		return false, errors.Wrap(err, "failed to inspect network connections")
	}

	for _, conn := range connections {
		if conn.Status == "LISTEN" && conn.Laddr.Port == uint32(port) {
			return true, nil
		}
	}
	return false, nil
}

// Preflight checks the target before provisioning. A bound app port requires
// explicit operator confirmation; declining aborts the run.
func Preflight(ctx context.Context, p presenter.Presenter, port int, assumeYes bool) error {
	inUse, err := PortInUse(port)
	if err != nil {
		// Inspection failure is not fatal; the step that binds the port
		// will surface the real error.
		logger.G(ctx).WithError(err).Warn("Port preflight check failed")
		return nil
	}

	if !inUse {
		return nil
	}

	p.Warning(errors.Errorf("port %d is already bound", port).Error())
	if assumeYes {
		p.Info("Continuing anyway (--yes)")
		return nil
	}

	if answer := p.Prompt("Continue anyway?", "yes", "no"); answer != "yes" {
		return errors.Errorf("aborted: port %d is already bound", port)
	}
	return nil
}
