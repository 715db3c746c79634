package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardtable/spades-server/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Redis  RedisSettings  `hcl:"redis,block"`
	NATS   *NATSSettings  `hcl:"nats,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RedisSettings configures the persistence store
type RedisSettings struct {
	Addr     string `hcl:"addr,optional"`
	Password string `hcl:"password,optional"`
	DB       int    `hcl:"db,optional"`
}

// NATSSettings configures the optional lifecycle event publisher
type NATSSettings struct {
	URL           string `hcl:"url"`
	SubjectPrefix string `hcl:"subject_prefix,optional"`
}

// GameSettings exposes the scoring constants and timing knobs. The
// ten-bag reset cadence is structural and deliberately absent here.
type GameSettings struct {
	WinningScore             int   `hcl:"winning_score,optional"`
	TrickValue               int   `hcl:"trick_value,optional"`
	BagValue                 int   `hcl:"bag_value,optional"`
	NilBonus                 int   `hcl:"nil_bonus,optional"`
	NilPenalty               int   `hcl:"nil_penalty,optional"`
	BagPenalty               int   `hcl:"bag_penalty,optional"`
	InactivityTimeoutMinutes int   `hcl:"inactivity_timeout_minutes,optional"`
	SweepIntervalMinutes     int   `hcl:"sweep_interval_minutes,optional"`
	RetentionHours           int   `hcl:"retention_hours,optional"`
	Seed                     int64 `hcl:"seed,optional"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Redis: RedisSettings{
			Addr: "localhost:6379",
		},
		Game: GameSettings{
			WinningScore:             500,
			TrickValue:               10,
			BagValue:                 1,
			NilBonus:                 100,
			NilPenalty:               100,
			BagPenalty:               100,
			InactivityTimeoutMinutes: 60,
			SweepIntervalMinutes:     60,
			RetentionHours:           24,
		},
	}
}

// LoadConfig loads server configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	def := DefaultConfig()

	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = def.Server.LogLevel
	}
	if config.Redis.Addr == "" {
		config.Redis.Addr = def.Redis.Addr
	}
	if config.NATS != nil && config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = "spades"
	}

	g := &config.Game
	if g.WinningScore == 0 {
		g.WinningScore = def.Game.WinningScore
	}
	if g.TrickValue == 0 {
		g.TrickValue = def.Game.TrickValue
	}
	if g.BagValue == 0 {
		g.BagValue = def.Game.BagValue
	}
	if g.NilBonus == 0 {
		g.NilBonus = def.Game.NilBonus
	}
	if g.NilPenalty == 0 {
		g.NilPenalty = def.Game.NilPenalty
	}
	if g.BagPenalty == 0 {
		g.BagPenalty = def.Game.BagPenalty
	}
	if g.InactivityTimeoutMinutes == 0 {
		g.InactivityTimeoutMinutes = def.Game.InactivityTimeoutMinutes
	}
	if g.SweepIntervalMinutes == 0 {
		g.SweepIntervalMinutes = def.Game.SweepIntervalMinutes
	}
	if g.RetentionHours == 0 {
		g.RetentionHours = def.Game.RetentionHours
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.WinningScore <= 0 {
		return fmt.Errorf("winning score must be positive, got %d", c.Game.WinningScore)
	}
	if c.Game.TrickValue <= 0 {
		return fmt.Errorf("trick value must be positive, got %d", c.Game.TrickValue)
	}
	if c.Game.InactivityTimeoutMinutes <= 0 {
		return fmt.Errorf("inactivity timeout must be positive, got %d", c.Game.InactivityTimeoutMinutes)
	}
	if c.Game.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %d", c.Game.SweepIntervalMinutes)
	}
	return nil
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameConfig translates the settings into the engine's configuration.
func (c *Config) GameConfig() game.Config {
	scoring := game.DefaultScoringConfig()
	scoring.WinThreshold = c.Game.WinningScore
	scoring.TrickValue = c.Game.TrickValue
	scoring.BagValue = c.Game.BagValue
	scoring.NilBonus = c.Game.NilBonus
	scoring.NilPenalty = c.Game.NilPenalty
	scoring.BagPenalty = c.Game.BagPenalty

	return game.Config{
		Scoring:           scoring,
		InactivityTimeout: time.Duration(c.Game.InactivityTimeoutMinutes) * time.Minute,
	}
}

// SweepInterval returns how often to run the timeout sweep.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Game.SweepIntervalMinutes) * time.Minute
}

// Retention returns how long terminal games are kept before deletion.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Game.RetentionHours) * time.Hour
}
