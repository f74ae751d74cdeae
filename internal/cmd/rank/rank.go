// Package rank parses rank command flags and starts the leaderboard service.
package rank

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/kevinchn/rankboard/internal/platform/cmd"
	server "github.com/kevinchn/rankboard/internal/services/rank/app"
)

// Config holds rank command configuration.
type Config struct {
	Port              int    `env:"RANKBOARD_PORT" envDefault:"8080"`
	DBPath            string `env:"RANKBOARD_DB_PATH"`
	RedisAddr         string `env:"RANKBOARD_REDIS_ADDR"`
	RankKey           string `env:"RANKBOARD_RANK_KEY" envDefault:"rank:global"`
	SessionTTLMinutes int    `env:"RANKBOARD_SESSION_TTL_MINUTES" envDefault:"30"`
	TempPrefix        string `env:"RANKBOARD_TEMP_PREFIX" envDefault:"temp:"`
	SeedEnabled       bool   `env:"RANKBOARD_SEED_ENABLED" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The rank server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the sqlite database file")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address (empty uses the in-process cache)")
	fs.StringVar(&cfg.RankKey, "rank-key", cfg.RankKey, "Ranking key namespace in the cache")
	fs.IntVar(&cfg.SessionTTLMinutes, "session-ttl-minutes", cfg.SessionTTLMinutes, "Session lifetime in minutes")
	fs.StringVar(&cfg.TempPrefix, "temp-prefix", cfg.TempPrefix, "Key prefix for temp cache entries")
	fs.BoolVar(&cfg.SeedEnabled, "seed", cfg.SeedEnabled, "Seed development users when the store is empty")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the rank leaderboard service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRank, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			Port:        cfg.Port,
			DBPath:      cfg.DBPath,
			RedisAddr:   cfg.RedisAddr,
			RankKey:     cfg.RankKey,
			SessionTTL:  time.Duration(cfg.SessionTTLMinutes) * time.Minute,
			TempPrefix:  cfg.TempPrefix,
			SeedEnabled: cfg.SeedEnabled,
		})
	})
}
