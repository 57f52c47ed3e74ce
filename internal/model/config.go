package model

import "time"

// Config holds the complete isosrc configuration
type Config struct {
	Entrez EntrezConfig `yaml:"entrez" mapstructure:"entrez"`
	Pacing PacingConfig `yaml:"pacing" mapstructure:"pacing"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// EntrezConfig configures the E-utilities client
type EntrezConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Email             string        `yaml:"email" mapstructure:"email"` // required by NCBI usage policy
	Tool              string        `yaml:"tool" mapstructure:"tool"`
	Database          Database      `yaml:"database" mapstructure:"database"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries           int           `yaml:"retries" mapstructure:"retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// PacingConfig configures batching and the adaptive pause policy
type PacingConfig struct {
	BatchSize      int           `yaml:"batch_size" mapstructure:"batch_size"`
	PauseThreshold int           `yaml:"pause_threshold" mapstructure:"pause_threshold"` // queries allowed before pausing kicks in
	Pause          time.Duration `yaml:"pause" mapstructure:"pause"`
}

// CacheConfig configures the fetch-response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig configures report and diagnostic outputs
type OutputConfig struct {
	ReportPath        string `yaml:"report" mapstructure:"report"`
	HistogramPath     string `yaml:"histogram" mapstructure:"histogram"`
	IncludeReferences bool   `yaml:"include_references" mapstructure:"include_references"`
	LogPath           string `yaml:"log,omitempty" mapstructure:"log"`
	Verbose           bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults matching NCBI's published limits
func DefaultConfig() *Config {
	return &Config{
		Entrez: EntrezConfig{
			BaseURL:           "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Tool:              "isosrc",
			Database:          DatabaseNucleotide,
			Timeout:           60 * time.Second,
			Retries:           3,
			RequestsPerSecond: 3, // E-utilities ceiling without an API key
		},
		Pacing: PacingConfig{
			BatchSize:      20,
			PauseThreshold: 100,
			Pause:          2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
			TTL:     7 * 24 * time.Hour,
		},
		Output: OutputConfig{
			ReportPath:        "isolation_sources.csv",
			HistogramPath:     "isolation_sources_stats.csv",
			IncludeReferences: true,
		},
	}
}
