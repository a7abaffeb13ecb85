// Package config loads server configuration from command-line flags,
// optionally layered with an on-disk server.yaml, following the
// teacher's flag.String CLI joined with dmitrymodder-minewire's
// yaml.v3-decoded Config struct.
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every process-level setting named in §6: the bind
// address, network worker pool size, tick rate, and view distance,
// plus the handful of teacher-carried cosmetic settings (MOTD, max
// players, world directory).
type Config struct {
	BindAddr     string `yaml:"bind_addr"`
	NetThreads   int    `yaml:"net_threads"`
	TPS          int    `yaml:"tps"`
	ViewDistance int32  `yaml:"view_distance"`
	MaxPlayers   int    `yaml:"max_players"`
	MOTD         string `yaml:"motd"`
	WorldDir     string `yaml:"world_dir"`
}

// MinViewDistance and MaxViewDistance bound the configurable view
// distance to values a vanilla 1.7.x client can actually request.
const (
	MinViewDistance int32 = 2
	MaxViewDistance int32 = 15
)

// Default returns the configuration used when neither flags nor a
// config file override a setting.
func Default() Config {
	return Config{
		BindAddr:     ":25565",
		NetThreads:   4,
		TPS:          20,
		ViewDistance: 10,
		MaxPlayers:   20,
		MOTD:         "A vibecraft Server",
		WorldDir:     "world",
	}
}

// Load builds a Config from Default(), overlaid by configPath's YAML
// (if it exists), overlaid by any flags the caller explicitly set on
// fs. A missing configPath is not an error; a present-but-invalid one
// is.
func Load(fs *flag.FlagSet, configPath string, args []string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := applyYAMLFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}

	bindAddr := fs.String("bind-addr", cfg.BindAddr, "address to listen on")
	netThreads := fs.Int("net-threads", cfg.NetThreads, "network worker pool size")
	tps := fs.Int("tps", cfg.TPS, "tick rate in ticks per second")
	viewDistance := fs.Int("view-distance", int(cfg.ViewDistance), "chunk view distance")
	maxPlayers := fs.Int("max-players", cfg.MaxPlayers, "maximum concurrent players")
	motd := fs.String("motd", cfg.MOTD, "server list MOTD")
	worldDir := fs.String("world-dir", cfg.WorldDir, "world data directory")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.BindAddr = *bindAddr
	cfg.NetThreads = *netThreads
	cfg.TPS = *tps
	cfg.ViewDistance = clampViewDistance(int32(*viewDistance))
	cfg.MaxPlayers = *maxPlayers
	cfg.MOTD = *motd
	cfg.WorldDir = *worldDir
	return cfg, nil
}

func applyYAMLFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func clampViewDistance(v int32) int32 {
	if v < MinViewDistance {
		return MinViewDistance
	}
	if v > MaxViewDistance {
		return MaxViewDistance
	}
	return v
}
