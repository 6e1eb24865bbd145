package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	ModeScenario = "scenario"
	ModeStress   = "stress"
	ModePipeline = "pipeline"

	envPrefix      = "SHOPS_"
	defaultEnvFile = ".env"
)

type Config struct {
	Mode string `koanf:"mode" validate:"oneof=scenario stress pipeline"`

	Log struct {
		Level string `koanf:"level" validate:"oneof=debug info warn error"`
	} `koanf:"log"`

	Metrics struct {
		Dump bool `koanf:"dump"`
	} `koanf:"metrics"`

	Scenario Scenario `koanf:"scenario"`
	Stress   Stress   `koanf:"stress"`
}

// Scenario paces the demo run: one step between product moves, one
// SellAll sweep over every shop per round.
type Scenario struct {
	Step   time.Duration `koanf:"step" validate:"gt=0"`
	Rounds int           `koanf:"rounds" validate:"min=1"`
}

type Stress struct {
	Shops     int           `koanf:"shops" validate:"min=1"`
	Producers int           `koanf:"producers" validate:"min=1"`
	Consumers int           `koanf:"consumers" validate:"min=1"`
	Kinds     int           `koanf:"kinds" validate:"min=1"`
	Duration  time.Duration `koanf:"duration" validate:"gt=0"`
	Seed      int64         `koanf:"seed"`
}

func Defaults() map[string]any {
	return map[string]any{
		"mode":             ModeScenario,
		"log.level":        "info",
		"metrics.dump":     false,
		"scenario.step":    "1s",
		"scenario.rounds":  4,
		"stress.shops":     3,
		"stress.producers": 4,
		"stress.consumers": 2,
		"stress.kinds":     5,
		"stress.duration":  "2s",
		"stress.seed":      1,
	}
}

// Load merges, lowest priority first: defaults, the yaml file, .env,
// then SHOPS_* environment variables.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", configFile, err)
			}
			log.Printf("WARN: config file %s not found, using defaults", configFile)
		}
	}

	if envFileMap, err := godotenv.Read(defaultEnvFile); err == nil {
		envMap := make(map[string]any, len(envFileMap))
		for key, value := range envFileMap {
			if strings.HasPrefix(key, envPrefix) {
				envMap[keyTransformer(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", keyTransformer), nil); err != nil {
		log.Printf("WARN: error loading env vars: %v", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// keyTransformer maps SHOPS_STRESS_PRODUCERS to stress.producers.
func keyTransformer(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "_", ".")
}
