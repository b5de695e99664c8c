// Package config loads the two configuration surfaces spec.md §6 defines
// (server, client): environment-variable driven, with an optional .env
// file loaded once at process start, in the style of the teacher's
// app/core/go_core config loader — generalized from "one function per
// registered config file" down to "one constructor per process side",
// since MAS has exactly two.
package config

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/mohdas1am/maas/internal/env"
)

// LoadDotEnv loads a .env file if present. A missing file is not an error —
// both binaries run fine from a pure-environment deployment.
func LoadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// Server is the server.*/memory.* configuration surface.
type Server struct {
	Host                  string
	Port                  int
	SlabSizes             []int64
	MaxPoolBytes          int64
	InitialSlabsPerSize   int
	LogPath               string
	LogMaxSizeMB          int
}

// DefaultServer returns the server configuration loaded from the
// environment, falling back to the defaults implied by spec.md §8's
// worked scenarios (classes 1024/4096/65536, 1MiB ceiling).
func DefaultServer() Server {
	sizes := env.GetIntSlice("MEMORY_SLAB_SIZES", []int{1024, 4096, 65536})
	widths := make([]int64, len(sizes))
	for i, s := range sizes {
		widths[i] = int64(s)
	}
	return Server{
		Host:                env.Get("SERVER_HOST", "0.0.0.0"),
		Port:                env.GetInt("SERVER_PORT", 8080),
		SlabSizes:           widths,
		MaxPoolBytes:        env.GetInt64("MEMORY_MAX_POOL_SIZE", 1<<20),
		InitialSlabsPerSize: env.GetInt("MEMORY_INITIAL_SLABS_PER_SIZE", 0),
		LogPath:             env.Get("LOG_PATH", "storage/logs/maas-server.log"),
		LogMaxSizeMB:        env.GetInt("LOG_MAX_SIZE_MB", 10),
	}
}

// Client is the client configuration surface.
type Client struct {
	URL             string
	Timeout         time.Duration
	FallbackEnabled bool
	HealthInterval  time.Duration
}

// DefaultClient returns the client configuration loaded from the environment.
func DefaultClient() Client {
	return Client{
		URL:             env.Get("MAAS_URL", "http://127.0.0.1:8080"),
		Timeout:         env.GetDuration("MAAS_TIMEOUT", 10*time.Second),
		FallbackEnabled: env.GetBool("MAAS_FALLBACK_ENABLED", true),
		HealthInterval:  env.GetDuration("MAAS_HEALTH_INTERVAL", 30*time.Second),
	}
}
