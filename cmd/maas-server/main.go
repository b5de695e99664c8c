// Command maas-server runs the slab-allocation HTTP server of spec.md §4.4.
//
// Bootstrap shape (ordered init steps, each logged) is grounded on the
// teacher's bootstrap/api/main.go.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohdas1am/maas/internal/allocator"
	"github.com/mohdas1am/maas/internal/config"
	"github.com/mohdas1am/maas/internal/env"
	"github.com/mohdas1am/maas/internal/httpapi"
	"github.com/mohdas1am/maas/internal/logging"
	"github.com/mohdas1am/maas/internal/slab"
	"github.com/mohdas1am/maas/internal/stats"
)

func main() {
	config.LoadDotEnv(env.Get("DOTENV_PATH", ".env"))
	cfg := config.DefaultServer()

	var (
		host         string
		port         int
		slabSizes    []int
		maxPoolBytes int64
	)

	root := &cobra.Command{
		Use:   "maas-server",
		Short: "Memory allocation service server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("slab-sizes") {
				widths := make([]int64, len(slabSizes))
				for i, s := range slabSizes {
					widths[i] = int64(s)
				}
				cfg.SlabSizes = widths
			}
			if cmd.Flags().Changed("max-pool-size") {
				cfg.MaxPoolBytes = maxPoolBytes
			}
			return run(cfg)
		},
	}

	root.Flags().StringVar(&host, "host", cfg.Host, "listen host")
	root.Flags().IntVar(&port, "port", cfg.Port, "listen port")
	root.Flags().IntSliceVar(&slabSizes, "slab-sizes", intsOf(cfg.SlabSizes), "ordered size-class widths in bytes")
	root.Flags().Int64Var(&maxPoolBytes, "max-pool-size", cfg.MaxPoolBytes, "global pool byte ceiling")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func intsOf(widths []int64) []int {
	out := make([]int, len(widths))
	for i, w := range widths {
		out[i] = int(w)
	}
	return out
}

func run(cfg config.Server) error {
	log := logging.New("maas-server")
	if err := log.EnableFile(cfg.LogPath, cfg.LogMaxSizeMB); err != nil {
		log.Warn("could not enable file logging", map[string]interface{}{"error": err.Error()})
	}

	set, err := slab.NewSet(cfg.SlabSizes, cfg.MaxPoolBytes, cfg.InitialSlabsPerSize)
	if err != nil {
		return fmt.Errorf("build size classes: %w", err)
	}
	log.Info("size classes configured", map[string]interface{}{"widths": cfg.SlabSizes, "max_pool_bytes": cfg.MaxPoolBytes})

	alloc := allocator.New(set, log)
	router := httpapi.NewRouter(&httpapi.Server{
		Alloc:     alloc,
		Requests:  &stats.RequestCounter{},
		Log:       log,
		Version:   httpapi.Version,
		StartedAt: time.Now(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{Addr: addr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", map[string]interface{}{"addr": addr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// All slabs are released implicitly: the allocator and its pools
		// are process-memory only and are discarded with the process
		// (spec.md §3 "On server shutdown, all slabs are released").
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return log.Close()
}
