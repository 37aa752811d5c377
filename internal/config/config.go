package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "WALIEN"

// DefaultProgramID is the deployed sale program address.
const DefaultProgramID = "Hp8rd1zGZdyJNidxx4461e9buwGhab9DcGnsc23wha3"

// Store backends.
const (
	StoreMemory   = "memory"
	StoreLevelDB  = "leveldb"
	StorePostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ProgramID    string
	Store        string
	LevelDBPath  string
	PGDSN        string
	EventsOut    string
	LogEvents    bool
	LogLevel     string
	LogFile      string
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"program-id":    DefaultProgramID,
		"store":         StoreLevelDB,
		"leveldb-path":  "./data/ledger",
		"events-out":    "./data/events.jsonl",
		"log-events":    true,
		"log-level":     "info",
		"listen":        ":8080",
		"read-timeout":  10 * time.Second,
		"write-timeout": 10 * time.Second,
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ProgramID:    v.GetString("program-id"),
		Store:        strings.ToLower(v.GetString("store")),
		LevelDBPath:  v.GetString("leveldb-path"),
		PGDSN:        v.GetString("pg-dsn"),
		EventsOut:    v.GetString("events-out"),
		LogEvents:    v.GetBool("log-events"),
		LogLevel:     v.GetString("log-level"),
		LogFile:      v.GetString("log-file"),
		Listen:       v.GetString("listen"),
		ReadTimeout:  v.GetDuration("read-timeout"),
		WriteTimeout: v.GetDuration("write-timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreLevelDB:
		if c.LevelDBPath == "" {
			return fmt.Errorf("leveldb-path is required for the leveldb store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("walienpool")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}
