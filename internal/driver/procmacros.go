package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rill/internal/procmacro"
)

// ConnectProcMacros starts one client per server command line and asks it
// for its macros. The returned close function shuts every client down.
func ConnectProcMacros(ctx context.Context, commands [][]string, timeout time.Duration) ([]ProcMacroServer, func() error, error) {
	var (
		servers []ProcMacroServer
		clients []*procmacro.Client
	)
	closeAll := func() error {
		var errs []error
		for _, c := range clients {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
	for _, argv := range commands {
		if len(argv) == 0 {
			continue
		}
		c := procmacro.NewClient(procmacro.Command(argv[0], argv[1:]...), timeout)
		clients = append(clients, c)
		macros, err := c.ListMacros(ctx)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("proc-macro server %s: %w", argv[0], err)
		}
		servers = append(servers, ProcMacroServer{Expander: c, Macros: macros})
	}
	return servers, closeAll, nil
}
