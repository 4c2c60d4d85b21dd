package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/asm"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/em"
)

// Config holds the full process configuration.
type Config struct {
	Server  ServerConfig
	REST    RESTConfig
	ASM     ASMConfig
	Field   FieldConfig
	Logging LoggingConfig
}

// RESTConfig holds the optional HTTP front end that proxies onto the
// gRPC guiding service.
type RESTConfig struct {
	Enabled          bool
	Host             string
	Port             int
	CORSEnabled      bool
	CORSOrigins      []string
	AuthEnabled      bool
	JWTSecret        string
	PublicPaths      []string
	AdminPaths       []string
	RateLimitEnabled bool
	RateLimitPerSec  float64
	RateLimitBurst   int
	RateLimitPerIP   bool
	RateLimitPerUser bool
	RateLimitGlobal  bool
}

// ServerConfig holds gRPC/REST server configuration.
type ServerConfig struct {
	Host            string        // Server host (default: "0.0.0.0")
	Port            int           // Server port (default: 50061)
	MaxConnections  int           // Max concurrent connections
	RequestTimeout  time.Duration // Request timeout
	ShutdownTimeout time.Duration // Graceful shutdown timeout
	EnableTLS       bool          // Enable TLS
	CertFile        string        // TLS certificate file
	KeyFile         string        // TLS key file
}

// ASMConfig holds the adaptive split-and-merge fitter defaults applied to
// every region unless a caller supplies its own asm.Configuration.
type ASMConfig struct {
	SplitThreshold                float64 // chi-squared candidate threshold
	MergeThreshold                float64 // Bhattacharyya dissimilarity threshold
	UseSplitAndMerge              bool    // enable split/merge passes
	PartialRefit                  bool    // restrict post-split EM to touched components
	MaxSplitItr                   int     // recursive splitting rounds per Fit
	MinSamplesForSplitting        uint64  // online split cadence
	MinSamplesForMerging          uint64  // online merge cadence
	MinSamplesForPartialRefitting int     // minimum batch size to bother refitting
	EMMaxIterations                int     // weighted EM iteration cap
	EMThreshold                    float64 // weighted EM log-likelihood convergence threshold
}

// FieldConfig holds the spatial field's region bookkeeping.
type FieldConfig struct {
	MaxComponents     int     // K_max per mixture (compile-time bound, informational)
	CandidateCount    int     // nearby mixtures considered per Candidate resample
	DecayFactor       float64 // sufficient-statistics decay applied between batches
	DefaultDataDir    string  // directory for field snapshots
}

// LoggingConfig holds structured-logging configuration.
type LoggingConfig struct {
	Level  string // DEBUG, INFO, WARN, ERROR, FATAL
	Tracing bool  // attach a LoggingSink instead of the default NoopSink
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            50061,
			MaxConnections:  1000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			EnableTLS:       false,
		},
		REST: RESTConfig{
			Enabled:          true,
			Host:             "0.0.0.0",
			Port:             8080,
			CORSEnabled:      true,
			CORSOrigins:      []string{"*"},
			AuthEnabled:      false,
			PublicPaths:      []string{"/v1/health", "/docs"},
			AdminPaths:       nil,
			RateLimitEnabled: true,
			RateLimitPerSec:  100,
			RateLimitBurst:   200,
			RateLimitPerIP:   true,
		},
		ASM: ASMConfig{
			SplitThreshold:                0.75,
			MergeThreshold:                0.00625,
			UseSplitAndMerge:              true,
			PartialRefit:                  true,
			MaxSplitItr:                   5,
			MinSamplesForSplitting:        4096,
			MinSamplesForMerging:          4096,
			MinSamplesForPartialRefitting: 256,
			EMMaxIterations:               50,
			EMThreshold:                   1e-5,
		},
		Field: FieldConfig{
			MaxComponents:  32,
			CandidateCount: 4,
			DecayFactor:    0.1,
			DefaultDataDir: "./data",
		},
		Logging: LoggingConfig{
			Level:   "INFO",
			Tracing: false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables, falling back
// to Default for anything unset or malformed.
func LoadFromEnv() *Config {
	cfg := Default()

	if host := os.Getenv("GUIDING_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("GUIDING_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if maxConn := os.Getenv("GUIDING_MAX_CONNECTIONS"); maxConn != "" {
		if mc, err := strconv.Atoi(maxConn); err == nil {
			cfg.Server.MaxConnections = mc
		}
	}
	if timeout := os.Getenv("GUIDING_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.RequestTimeout = t
		}
	}
	if enableTLS := os.Getenv("GUIDING_ENABLE_TLS"); enableTLS == "true" {
		cfg.Server.EnableTLS = true
		cfg.Server.CertFile = os.Getenv("GUIDING_TLS_CERT")
		cfg.Server.KeyFile = os.Getenv("GUIDING_TLS_KEY")
	}

	if restEnabled := os.Getenv("GUIDING_REST_ENABLED"); restEnabled == "false" {
		cfg.REST.Enabled = false
	}
	if restPort := os.Getenv("GUIDING_REST_PORT"); restPort != "" {
		if p, err := strconv.Atoi(restPort); err == nil {
			cfg.REST.Port = p
		}
	}
	if authEnabled := os.Getenv("GUIDING_REST_AUTH_ENABLED"); authEnabled == "true" {
		cfg.REST.AuthEnabled = true
		cfg.REST.JWTSecret = os.Getenv("GUIDING_REST_JWT_SECRET")
	}

	if st := os.Getenv("GUIDING_ASM_SPLIT_THRESHOLD"); st != "" {
		if v, err := strconv.ParseFloat(st, 64); err == nil {
			cfg.ASM.SplitThreshold = v
		}
	}
	if mt := os.Getenv("GUIDING_ASM_MERGE_THRESHOLD"); mt != "" {
		if v, err := strconv.ParseFloat(mt, 64); err == nil {
			cfg.ASM.MergeThreshold = v
		}
	}
	if sam := os.Getenv("GUIDING_ASM_USE_SPLIT_AND_MERGE"); sam == "false" {
		cfg.ASM.UseSplitAndMerge = false
	}
	if pr := os.Getenv("GUIDING_ASM_PARTIAL_REFIT"); pr == "false" {
		cfg.ASM.PartialRefit = false
	}
	if msi := os.Getenv("GUIDING_ASM_MAX_SPLIT_ITR"); msi != "" {
		if v, err := strconv.Atoi(msi); err == nil {
			cfg.ASM.MaxSplitItr = v
		}
	}
	if mss := os.Getenv("GUIDING_ASM_MIN_SAMPLES_SPLIT"); mss != "" {
		if v, err := strconv.ParseUint(mss, 10, 64); err == nil {
			cfg.ASM.MinSamplesForSplitting = v
		}
	}
	if msm := os.Getenv("GUIDING_ASM_MIN_SAMPLES_MERGE"); msm != "" {
		if v, err := strconv.ParseUint(msm, 10, 64); err == nil {
			cfg.ASM.MinSamplesForMerging = v
		}
	}
	if emi := os.Getenv("GUIDING_ASM_EM_MAX_ITERATIONS"); emi != "" {
		if v, err := strconv.Atoi(emi); err == nil {
			cfg.ASM.EMMaxIterations = v
		}
	}

	if cc := os.Getenv("GUIDING_FIELD_CANDIDATE_COUNT"); cc != "" {
		if v, err := strconv.Atoi(cc); err == nil {
			cfg.Field.CandidateCount = v
		}
	}
	if df := os.Getenv("GUIDING_FIELD_DECAY_FACTOR"); df != "" {
		if v, err := strconv.ParseFloat(df, 64); err == nil {
			cfg.Field.DecayFactor = v
		}
	}
	if dir := os.Getenv("GUIDING_FIELD_DATA_DIR"); dir != "" {
		cfg.Field.DefaultDataDir = dir
	}

	if level := os.Getenv("GUIDING_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if tracing := os.Getenv("GUIDING_LOG_TRACING"); tracing == "true" {
		cfg.Logging.Tracing = true
	}

	return cfg
}

// Validate checks whether the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("invalid max connections: %d (must be > 0)", c.Server.MaxConnections)
	}
	if c.Server.EnableTLS {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
	}

	if c.REST.Enabled {
		if c.REST.Port < 1 || c.REST.Port > 65535 {
			return fmt.Errorf("invalid REST port: %d (must be 1-65535)", c.REST.Port)
		}
		if c.REST.AuthEnabled && c.REST.JWTSecret == "" {
			return fmt.Errorf("REST auth enabled but no JWT secret configured")
		}
	}

	if c.ASM.SplitThreshold < 0 {
		return fmt.Errorf("invalid ASM split threshold: %v (must be >= 0)", c.ASM.SplitThreshold)
	}
	if c.ASM.MergeThreshold < 0 || c.ASM.MergeThreshold > 1 {
		return fmt.Errorf("invalid ASM merge threshold: %v (must be in [0,1])", c.ASM.MergeThreshold)
	}
	if c.ASM.MaxSplitItr < 0 {
		return fmt.Errorf("invalid ASM max split iterations: %d (must be >= 0)", c.ASM.MaxSplitItr)
	}
	if c.ASM.EMMaxIterations < 1 {
		return fmt.Errorf("invalid ASM EM max iterations: %d (must be > 0)", c.ASM.EMMaxIterations)
	}

	if c.Field.CandidateCount < 1 {
		return fmt.Errorf("invalid field candidate count: %d (must be > 0)", c.Field.CandidateCount)
	}
	if c.Field.DecayFactor < 0 || c.Field.DecayFactor > 1 {
		return fmt.Errorf("invalid field decay factor: %v (must be in [0,1])", c.Field.DecayFactor)
	}
	if c.Field.DefaultDataDir == "" {
		return fmt.Errorf("field data directory not specified")
	}

	return nil
}

// ToASMConfiguration converts the process-wide ASM defaults into the
// asm.Configuration value a field.Region's Fit/Update calls consume.
func (c ASMConfig) ToASMConfiguration() asm.Configuration {
	return asm.Configuration{
		SplitThreshold:                c.SplitThreshold,
		MergeThreshold:                c.MergeThreshold,
		UseSplitAndMerge:              c.UseSplitAndMerge,
		PartialRefit:                  c.PartialRefit,
		MaxSplitItr:                   c.MaxSplitItr,
		MinSamplesForSplitting:        c.MinSamplesForSplitting,
		MinSamplesForMerging:          c.MinSamplesForMerging,
		MinSamplesForPartialRefitting: c.MinSamplesForPartialRefitting,
		WeightedEM: em.Config{
			MaxIterations: c.EMMaxIterations,
			Threshold:     c.EMThreshold,
		},
	}
}

// Address returns the server address (host:port).
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
