package rank

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.RankKey != "rank:global" {
		t.Fatalf("expected default rank key rank:global, got %q", cfg.RankKey)
	}
	if cfg.SessionTTLMinutes != 30 {
		t.Fatalf("expected default session ttl 30, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.TempPrefix != "temp:" {
		t.Fatalf("expected default temp prefix temp:, got %q", cfg.TempPrefix)
	}
	if !cfg.SeedEnabled {
		t.Fatal("expected seeding enabled by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{
		"-port", "9001",
		"-redis-addr", "127.0.0.1:6379",
		"-rank-key", "rank:weekly",
		"-session-ttl-minutes", "5",
		"-seed=false",
	})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", cfg.Port)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("expected redis addr override, got %q", cfg.RedisAddr)
	}
	if cfg.RankKey != "rank:weekly" {
		t.Fatalf("expected rank key override, got %q", cfg.RankKey)
	}
	if cfg.SessionTTLMinutes != 5 {
		t.Fatalf("expected session ttl 5, got %d", cfg.SessionTTLMinutes)
	}
	if cfg.SeedEnabled {
		t.Fatal("expected seeding disabled")
	}
}

func TestParseConfigEnvDefaults(t *testing.T) {
	t.Setenv("RANKBOARD_PORT", "9102")
	t.Setenv("RANKBOARD_TEMP_PREFIX", "scratch:")

	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9102 {
		t.Fatalf("expected env port 9102, got %d", cfg.Port)
	}
	if cfg.TempPrefix != "scratch:" {
		t.Fatalf("expected env temp prefix scratch:, got %q", cfg.TempPrefix)
	}
}
