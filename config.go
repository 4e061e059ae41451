package apiforms

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config carries everything a Form needs beyond its declaration. It is
// passed explicitly to NewForm and FromRequest; nested forms inherit the
// Config of the form that contains them.
type Config struct {
	// FormErrorKey is the path segment for errors from a form-wide hook.
	FormErrorKey string
	Decoders     *DecoderRegistry
	Strategies   *StrategyRegistry
	Logger       *zap.Logger
}

// DefaultConfig returns a new Config with the built in decoders, the
// default strategy table and a no-op logger.
func DefaultConfig() *Config {
	return &Config{
		FormErrorKey: FormErrorKey,
		Decoders:     mustDecoderRegistry(DecoderRegistryOpts{}),
		Strategies:   NewStrategyRegistry(),
		Logger:       zap.NewNop(),
	}
}

// defaultConfig is shared by every call that passes a nil Config.
var defaultConfig = sync.OnceValue(DefaultConfig)

// resolveConfig returns cfg with unset members taken from the shared
// default. cfg itself is never modified.
func resolveConfig(cfg *Config) *Config {
	base := defaultConfig()
	if cfg == nil {
		return base
	}
	if cfg.FormErrorKey != "" && cfg.Decoders != nil && cfg.Strategies != nil && cfg.Logger != nil {
		return cfg
	}

	resolved := *cfg
	if resolved.FormErrorKey == "" {
		resolved.FormErrorKey = base.FormErrorKey
	}
	if resolved.Decoders == nil {
		resolved.Decoders = base.Decoders
	}
	if resolved.Strategies == nil {
		resolved.Strategies = base.Strategies
	}
	if resolved.Logger == nil {
		resolved.Logger = base.Logger
	}
	return &resolved
}

///////////////////////////////////////////////////////////////////////////////
// Loading
///////////////////////////////////////////////////////////////////////////////

const configEnvPrefix = "APIFORMS"

// config keys read by LoadConfig
const (
	keyFormErrorKey    = "form_error_key"
	keyDefaultStrategy = "default_strategy"
	keyStrategies      = "strategies"
	keyMediaTypes      = "media_types"
	keyLogLevel        = "log_level"
)

// LoadConfig builds a Config from a YAML or JSON file, with APIFORMS_*
// environment variables taking precedence. An empty path reads the
// environment and defaults only.
//
// Example file:
//
//	form_error_key: $body
//	default_strategy: assign
//	strategies:
//	  FieldList: ignore
//	media_types: [application/json, application/x-msgpack]
//	log_level: debug
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(configEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyFormErrorKey, FormErrorKey)
	v.SetDefault(keyDefaultStrategy, "assign")
	v.SetDefault(keyStrategies, map[string]string{})
	v.SetDefault(keyMediaTypes, []string{})
	v.SetDefault(keyLogLevel, "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	}

	return configFromViper(v)
}

func configFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	cfg.FormErrorKey = v.GetString(keyFormErrorKey)

	fallback, err := ParseStrategy(v.GetString(keyDefaultStrategy))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyDefaultStrategy, err)
	}
	cfg.Strategies.SetDefault(fallback)

	for kind, name := range v.GetStringMapString(keyStrategies) {
		strategy, err := ParseStrategy(name)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", keyStrategies, kind, err)
		}
		cfg.Strategies.Register(restoreKindCase(kind), strategy)
	}

	if mediaTypes := v.GetStringSlice(keyMediaTypes); len(mediaTypes) > 0 {
		decoders, err := NewDecoderRegistry(DecoderRegistryOpts{MediaTypes: mediaTypes})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyMediaTypes, err)
		}
		cfg.Decoders = decoders
	}

	logger, err := newLogger(v.GetString(keyLogLevel))
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger
	return cfg, nil
}

// viper lower-cases map keys; field kinds are CamelCase
var knownKinds = []string{
	KindChar, KindEmail, KindInteger, KindFloat, KindDecimal, KindBoolean,
	KindDate, KindTime, KindDateTime, KindDuration, KindEnum, KindUUID,
	KindAny, KindFieldList, KindDictionary, KindFormField, KindFormFieldList,
}

func restoreKindCase(kind string) string {
	for _, known := range knownKinds {
		if strings.EqualFold(known, kind) {
			return known
		}
	}
	return kind
}

// newLogger builds a production zap logger at level. An empty level
// disables logging.
func newLogger(level string) (*zap.Logger, error) {
	if level == "" {
		return zap.NewNop(), nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyLogLevel, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
