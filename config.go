package symcost

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/symcost/costmodel"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the symcost configuration
type Config struct {
	Cost    CostConfig    `yaml:"cost"`
	Solver  SolverConfig  `yaml:"solver"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Ranking RankingConfig `yaml:"ranking"`
	Log     LogConfig     `yaml:"log"`
}

// CostConfig represents cost assignment settings
type CostConfig struct {
	// Pointer to distinguish between unset and false. Unset means true.
	AssumeLargeCardinalities  *bool `yaml:"assume_large_cardinalities"`
	SimpleCostModel           bool  `yaml:"simple_cost_model"`
	LargeCardinalityThreshold int64 `yaml:"large_cardinality_threshold"`
}

// LargeCardinalities reports whether free collections are assumed large.
func (c CostConfig) LargeCardinalities() bool {
	return c.AssumeLargeCardinalities == nil || *c.AssumeLargeCardinalities
}

// SolverConfig represents decision procedure budgets
type SolverConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	RelaxedTimeout time.Duration `yaml:"relaxed_timeout"`
	MaxIterations  int           `yaml:"max_iterations"`
	MaxConstraints int           `yaml:"max_constraints"`
}

// OracleConfig represents cardinality oracle settings
type OracleConfig struct {
	CacheCapacity int  `yaml:"cache_capacity"`
	Incremental   bool `yaml:"incremental"`
	UseIndicators bool `yaml:"use_indicators"`
}

// RankingConfig represents candidate ranking settings
type RankingConfig struct {
	// Parallelism of pairwise comparisons. 0 means GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`
}

// LogConfig represents logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is a file path; empty means stderr.
	Output string `yaml:"output"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Cost.LargeCardinalityThreshold < 0 {
		return fmt.Errorf("%w: cost.large_cardinality_threshold must be non-negative, got %d", ErrConfigValidation, config.Cost.LargeCardinalityThreshold)
	}

	if config.Solver.Timeout < 0 {
		return fmt.Errorf("%w: solver.timeout must be >= 0, got %s", ErrConfigValidation, config.Solver.Timeout)
	}

	if config.Solver.RelaxedTimeout < 0 {
		return fmt.Errorf("%w: solver.relaxed_timeout must be >= 0, got %s", ErrConfigValidation, config.Solver.RelaxedTimeout)
	}

	if config.Solver.MaxIterations < 0 {
		return fmt.Errorf("%w: solver.max_iterations must be non-negative, got %d", ErrConfigValidation, config.Solver.MaxIterations)
	}

	if config.Solver.MaxConstraints < 0 {
		return fmt.Errorf("%w: solver.max_constraints must be non-negative, got %d", ErrConfigValidation, config.Solver.MaxConstraints)
	}

	if config.Oracle.CacheCapacity < 0 {
		return fmt.Errorf("%w: oracle.cache_capacity must be non-negative, got %d", ErrConfigValidation, config.Oracle.CacheCapacity)
	}

	if config.Oracle.UseIndicators && !config.Oracle.Incremental {
		return fmt.Errorf("%w: oracle.use_indicators requires oracle.incremental", ErrConfigValidation)
	}

	if config.Ranking.Parallelism < 0 {
		return fmt.Errorf("%w: ranking.parallelism must be non-negative, got %d", ErrConfigValidation, config.Ranking.Parallelism)
	}

	if config.Log.Level != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[config.Log.Level] {
			return fmt.Errorf("%w: log.level '%s' is invalid: must be one of debug, info, warn, error", ErrConfigValidation, config.Log.Level)
		}
	}

	if config.Log.Format != "" {
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if !validFormats[config.Log.Format] {
			return fmt.Errorf("%w: log.format '%s' is invalid: must be one of text, json", ErrConfigValidation, config.Log.Format)
		}
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)

	return config
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Cost.LargeCardinalityThreshold == 0 {
		config.Cost.LargeCardinalityThreshold = costmodel.DefaultLargeCardinality
	}

	if config.Solver.Timeout == 0 {
		config.Solver.Timeout = costmodel.DefaultTimeout
	}

	if config.Solver.RelaxedTimeout == 0 {
		config.Solver.RelaxedTimeout = costmodel.DefaultRelaxedTimeout
	}

	if config.Solver.MaxIterations == 0 {
		config.Solver.MaxIterations = 10000
	}

	if config.Solver.MaxConstraints == 0 {
		config.Solver.MaxConstraints = 4096
	}

	if config.Oracle.CacheCapacity == 0 {
		config.Oracle.CacheCapacity = costmodel.DefaultCacheCapacity
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return bareEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in path-like settings
func expandConfigEnvVars(config *Config) {
	config.Log.Output = expandEnvVars(config.Log.Output)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
