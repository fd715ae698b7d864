package logger

import (
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stroppy-io/gatedfetch/internal/core/build"
	"github.com/stroppy-io/gatedfetch/internal/core/envs"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type LogMod string

const (
	DevelopmentMod LogMod = "development"
	ProductionMod  LogMod = "production"
)

const (
	LogModEnvKey        = "LOG_MOD"
	LevelEnvKey         = "LOG_LEVEL"
	LogMappingEnvKey    = "LOG_MAPPING"
	LogSkipCallerEnvKey = "LOG_SKIP_CALLER"

	DefaultLevel = "info"
)

// Config is the logger section of the application config.
// LogMapping raises the level of named loggers, e.g. "fetch=warn,journal=error".
type Config struct {
	LogMod     LogMod            `mapstructure:"mod" default:"production" validate:"oneof=production development"`
	LogLevel   string            `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
	LogMapping map[string]LogMod `mapstructure:"mapping"`
	SkipCaller bool              `mapstructure:"skip_caller"`
}

func (c *Config) Validate() error {
	switch c.LogMod {
	case "", ProductionMod, DevelopmentMod:
	default:
		return fmt.Errorf("unknown log mod %q", c.LogMod)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	for name, lvl := range c.LogMapping {
		if _, err := zapcore.ParseLevel(string(lvl)); err != nil {
			return fmt.Errorf("invalid level for logger %s: %w", name, err)
		}
	}
	return nil
}

func ParseMapping(mappingStr string) map[string]LogMod {
	if mappingStr == "" {
		return nil
	}
	mapping := make(map[string]LogMod)
	for _, pair := range strings.Split(mappingStr, ",") {
		kv := strings.Split(strings.TrimSpace(pair), "=")
		if len(kv) != 2 {
			continue
		}
		mapping[kv[0]] = LogMod(kv[1])
	}
	return mapping
}

// ConfigFromEnv reads the LOG_* variables, falling back to production mode
// at info level.
func ConfigFromEnv() *Config {
	return &Config{
		LogMod:     LogMod(envs.Get(LogModEnvKey, string(ProductionMod))),
		LogLevel:   envs.Get(LevelEnvKey, DefaultLevel),
		LogMapping: ParseMapping(envs.Get(LogMappingEnvKey, "")),
		SkipCaller: envs.Get(LogSkipCallerEnvKey, "false") == "true",
	}
}

var (
	globalLogger  = newDefault() //nolint:gochecknoglobals // global logger needed for all app.
	globalMapping = make(map[string]zapcore.Level)
)

func newDefault(opts ...zap.Option) *zap.Logger {
	cfg := newZapCfg(DevelopmentMod, zapcore.DebugLevel)
	logger, _ := cfg.Build(opts...)

	return logger
}

func newZapCfg(mod LogMod, logLevel zapcore.Level) zap.Config {
	var cfg zap.Config

	switch mod {
	case ProductionMod:
		cfg = zap.NewProductionConfig()
		cfg.Level.SetLevel(logLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	return cfg
}

// NewFromConfig builds the global logger. It panics on an invalid config,
// call cfg.Validate first when the config comes from user input.
func NewFromConfig(cfg *Config, opts ...zap.Option) *zap.Logger {
	level, parseErr := zapcore.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		panic(parseErr)
	}

	logger, err := newZapCfg(cfg.LogMod, level).Build(opts...)
	if err != nil {
		panic(err)
	}

	globalLogger = logger.With(
		zap.String("service", build.ServiceName),
		zap.String("version", build.Version),
		zap.String("instance", build.GlobalInstanceId),
	)

	globalMapping = make(map[string]zapcore.Level, len(cfg.LogMapping))
	for name, lvl := range cfg.LogMapping {
		globalMapping[name], err = zapcore.ParseLevel(string(lvl))
		if err != nil {
			panic(err)
		}
	}

	if cfg.SkipCaller {
		globalLogger = globalLogger.WithOptions(zap.WithCaller(false))
	}

	return globalLogger
}

func getNamedLoggerLevel(name string) zapcore.Level {
	if level, ok := globalMapping[name]; ok {
		return level
	}
	return Global().Level()
}

// Global returns the global logger.
func Global() *zap.Logger {
	return globalLogger
}

func Named(name string) *zap.Logger {
	return globalLogger.Named(name).WithOptions(zap.IncreaseLevel(getNamedLoggerLevel(name)))
}

func NamedSlog(name string) *slog.Logger {
	return NewSlogFromLogger(Named(name))
}

func NewSlogFromLogger(lg *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(lg.Core()))
}

func StdLog() *log.Logger {
	stdOutLogger, err := zap.NewStdLogAt(Global(), Global().Level())
	if err != nil {
		panic(err)
	}
	return stdOutLogger
}

func zerologLevel(lvl zapcore.Level) zerolog.Level {
	switch lvl {
	case zapcore.DebugLevel:
		return zerolog.DebugLevel
	case zapcore.InfoLevel:
		return zerolog.InfoLevel
	case zapcore.WarnLevel:
		return zerolog.WarnLevel
	case zapcore.ErrorLevel:
		return zerolog.ErrorLevel
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return zerolog.PanicLevel
	case zapcore.FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Zerolog adapts the global logger for the hatchet client, which only accepts zerolog.
func Zerolog() *zerolog.Logger {
	logger := zerolog.New(StdLog().Writer()).Level(zerologLevel(Global().Level())).With().Fields(
		map[string]any{
			"service":  build.ServiceName,
			"version":  build.Version,
			"instance": build.GlobalInstanceId,
		},
	).Logger()
	return &logger
}
