package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed stopwords.txt
var defaultStopwords string

// EnvPrefix prefixes every environment override, e.g. MAILTRACE_EXTRACT_BUDGET.
const EnvPrefix = "MAILTRACE_"

type Config struct {
	Store   StoreConfig   `yaml:"store" envPrefix:"STORE_"`
	Text    TextConfig    `yaml:"text" envPrefix:"TEXT_"`
	Topics  TopicsConfig  `yaml:"topics" envPrefix:"TOPICS_"`
	Graph   GraphConfig   `yaml:"graph" envPrefix:"GRAPH_"`
	Extract ExtractConfig `yaml:"extract" envPrefix:"EXTRACT_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

type StoreConfig struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"`
}

// TextConfig controls tokenisation. Tokens survive when their length lies
// strictly between MinTokenLen and MaxTokenLen.
type TextConfig struct {
	Stopwords    []string `yaml:"stopwords" env:"STOPWORDS" envSeparator:","`
	TokenPattern string   `yaml:"token_pattern" env:"TOKEN_PATTERN" validate:"required"`
	MinTokenLen  int      `yaml:"min_token_len" env:"MIN_TOKEN_LEN" validate:"gte=0"`
	MaxTokenLen  int      `yaml:"max_token_len" env:"MAX_TOKEN_LEN" validate:"gtfield=MinTokenLen"`
}

type TopicsConfig struct {
	Dim int `yaml:"dim" env:"DIM" validate:"gte=1"`
}

// GraphConfig controls meta-graph construction. Window is a look-ahead in
// "<n>-<unit>" form; empty means unbounded. PrepruneSpan drops built edges
// spanning more than the given time before costs are assigned.
type GraphConfig struct {
	Window           string `yaml:"window" env:"WINDOW"`
	PrepruneSpan     string `yaml:"preprune_span" env:"PREPRUNE_SPAN"`
	Decompose        bool   `yaml:"decompose" env:"DECOMPOSE"`
	RemoveSingletons bool   `yaml:"remove_singletons" env:"REMOVE_SINGLETONS"`
	DummyPrefix      string `yaml:"dummy_prefix" env:"DUMMY_PREFIX" validate:"required"`
	Distance         string `yaml:"distance" env:"DISTANCE" validate:"oneof=cosine euclidean hellinger"`
}

// ExtractConfig controls event extraction. Precision, when set, is the number of
// decimal digits kept when costs are converted to fixed point.
type ExtractConfig struct {
	Budget     float64 `yaml:"budget" env:"BUDGET" validate:"gte=0"`
	Precision  *int    `yaml:"precision" env:"PRECISION" validate:"omitempty,gte=0,lte=6"`
	Timespan   string  `yaml:"timespan" env:"TIMESPAN"`
	Workers    int     `yaml:"workers" env:"WORKERS" validate:"gte=1"`
	SampleSize int     `yaml:"sample_size" env:"SAMPLE_SIZE" validate:"gte=1"`
	Seed       int64   `yaml:"seed" env:"SEED"`
	KBest      int     `yaml:"k_best" env:"K_BEST" validate:"gte=1"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	precision := 2
	return Config{
		Text: TextConfig{
			Stopwords:    DefaultStopwords(),
			TokenPattern: `^[a-z]+$`,
			MinTokenLen:  2,
			MaxTokenLen:  15,
		},
		Topics: TopicsConfig{Dim: 32},
		Graph: GraphConfig{
			Decompose:        true,
			RemoveSingletons: true,
			DummyPrefix:      "d_",
			Distance:         "cosine",
		},
		Extract: ExtractConfig{
			Budget:     1.0,
			Precision:  &precision,
			Timespan:   "7-days",
			Workers:    4,
			SampleSize: 100,
			Seed:       1,
			KBest:      10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultStopwords returns the embedded stopword list.
func DefaultStopwords() []string {
	var words []string
	for _, w := range strings.Split(defaultStopwords, "\n") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Load layers the YAML file at path (if non-empty), then MAILTRACE_*
// environment variables, over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
