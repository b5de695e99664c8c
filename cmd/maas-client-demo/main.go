// Command maas-client-demo exercises the client pool manager against a
// running maas-server, standing in for the "representative client"
// spec.md §1 describes (e.g. a time-series database offloading chunk
// buffers). It walks through a remote allocate/free, then forces a local
// fallback by pointing at an unreachable server, printing the pool
// manager's stats at each step.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohdas1am/maas/internal/config"
	"github.com/mohdas1am/maas/internal/env"
	"github.com/mohdas1am/maas/internal/logging"
	"github.com/mohdas1am/maas/pkg/client"
)

func main() {
	config.LoadDotEnv(env.Get("DOTENV_PATH", ".env"))
	cfg := config.DefaultClient()

	var url string
	var size int64

	root := &cobra.Command{
		Use:   "maas-client-demo",
		Short: "Demonstrates the MAS client pool manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("url") {
				cfg.URL = url
			}
			return demo(cfg, size)
		},
	}
	root.Flags().StringVar(&url, "url", cfg.URL, "MAS server base URL")
	root.Flags().Int64Var(&size, "size", 4096, "chunk buffer size in bytes to allocate")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func demo(cfg config.Client, size int64) error {
	log := logging.New("maas-client-demo")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool := client.NewPoolManager(ctx, cfg, log)
	defer pool.Close()

	// A short pause before the first allocation. The health monitor starts
	// Connected and runs its first probe only after one HealthInterval, so
	// this first allocation is attempted remotely without waiting on a probe.
	time.Sleep(50 * time.Millisecond)

	buf, err := pool.AllocateBytes(ctx, size)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	fmt.Printf("allocated %d bytes (cap %d)\n", len(buf), cap(buf))
	printStats(pool)

	if err := pool.Free(ctx, buf); err != nil {
		return fmt.Errorf("free: %w", err)
	}
	fmt.Println("freed allocation")
	printStats(pool)

	// Exercise the fallback path against a server that cannot be reached.
	unreachable := client.NewPoolManager(ctx, config.Client{
		URL:             "http://127.0.0.1:1",
		Timeout:         200 * time.Millisecond,
		FallbackEnabled: true,
		HealthInterval:  time.Hour,
	}, log)
	defer unreachable.Close()

	localBuf, err := unreachable.AllocateBytes(ctx, size)
	if err != nil {
		return fmt.Errorf("fallback allocate: %w", err)
	}
	fmt.Printf("fell back to a local buffer of %d bytes\n", len(localBuf))
	printStats(unreachable)

	return pool.Cleanup(ctx)
}

func printStats(pool *client.PoolManager) {
	s := pool.Stats()
	fmt.Printf("  remote=%d local=%d fallbacks=%d remote_enabled=%v consecutive_failures=%d last_probe_unix=%d\n",
		s.RemoteAllocations, s.LocalAllocations, s.FallbackCount, s.RemoteEnabled,
		s.ConsecutiveFailures, s.LastProbeUnix)
}
