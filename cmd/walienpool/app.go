package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"walienPool/internal/config"
	"walienPool/internal/events"
	"walienPool/internal/sale"
	"walienPool/internal/storage"
	leveldbstore "walienPool/internal/storage/leveldb"
	"walienPool/internal/storage/postgres"
)

// app bundles what every ledger command needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  storage.Store
	svc    *sale.Service
}

func openApp(ctx context.Context, cmd *cobra.Command, extra ...events.Sink) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sinks := events.Fanout(extra)
	if cfg.EventsOut != "" {
		sinks = append(sinks, events.NewJsonlSink(cfg.EventsOut))
	}
	if cfg.LogEvents {
		sinks = append(sinks, events.NewLogSink(logger.Named("events")))
	}

	svc, err := sale.New(store, programID,
		sale.WithLogger(logger),
		sale.WithEventSink(sinks),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug("ledger open",
		zap.String("program_id", cfg.ProgramID),
		zap.String("store", cfg.Store),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("events_out", cfg.EventsOut),
	)
	return &app{cfg: cfg, logger: logger, store: store, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return storage.NewMemory(), nil
	case config.StoreLevelDB:
		store, err := leveldbstore.Open(cfg.LevelDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open leveldb: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newLogger builds the production JSON logger, teeing into a rotating file
// when file is set.
func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file == "" {
		return cfg.Build()
	}

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	encoder := zapcore.NewJSONEncoder(cfg.EncoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), cfg.Level),
		zapcore.NewCore(encoder, zapcore.AddSync(rotator), cfg.Level),
	)
	return zap.New(core, zap.AddCaller()), nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func parseKey(name, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return key, nil
}
