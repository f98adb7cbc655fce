// Package config loads the server's YAML configuration, following the
// struct-tag-default-plus-Validate pattern used throughout the teacher's
// plugin configs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Metadata  MetadataConfig  `yaml:"metadata"`
}

type ServerConfig struct {
	Host         string        `yaml:"host" default:"0.0.0.0"`
	Port         int           `yaml:"port" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"0s"`
}

// DataConfig locates the on-disk layout described in spec §6.
type DataConfig struct {
	Dir string `yaml:"dir" default:"./ferrite-data"`
}

func (d DataConfig) DBPath() string           { return d.Dir + "/ferrite.db" }
func (d DataConfig) HLSCacheDir() string       { return d.Dir + "/cache/transcode/hls" }
func (d DataConfig) ThumbnailCacheDir() string { return d.Dir + "/cache/transcode/thumbnails" }
func (d DataConfig) ImageCacheDir() string     { return d.Dir + "/cache/images" }
func (d DataConfig) SubtitleCacheDir() string  { return d.Dir + "/cache/subtitles" }

type ScannerConfig struct {
	ConcurrentProbes        int `yaml:"concurrent_probes" default:"4"`
	WatchDebounceSeconds    int `yaml:"watch_debounce_seconds" default:"2"`
	EnrichConcurrencyMovies int `yaml:"enrich_concurrency_movies" default:"8"`
	EnrichConcurrencyShows  int `yaml:"enrich_concurrency_shows" default:"4"`
	IncrementalBatchSize    int `yaml:"incremental_batch_size" default:"256"`
}

func (s ScannerConfig) DebounceWindow() time.Duration {
	return time.Duration(s.WatchDebounceSeconds) * time.Second
}

type HWAccelMode string

const (
	HWAccelAuto     HWAccelMode = "auto"
	HWAccelNVENC    HWAccelMode = "nvenc"
	HWAccelQSV      HWAccelMode = "qsv"
	HWAccelVAAPI    HWAccelMode = "vaapi"
	HWAccelSoftware HWAccelMode = "software"
)

type SegmentMIMEMode string

const (
	SegmentMIMEVideoMP4        SegmentMIMEMode = "video-mp4"
	SegmentMIMEVideoISOSegment SegmentMIMEMode = "video-iso-segment"
)

type TranscodeConfig struct {
	MaxConcurrentTranscodes int             `yaml:"max_concurrent_transcodes" default:"2"`
	HLSSegmentDuration      int             `yaml:"hls_segment_duration" default:"2"`
	HLSSessionTimeoutSecs   int             `yaml:"hls_session_timeout_secs" default:"30"`
	HLSFfmpegIdleSecs       int             `yaml:"hls_ffmpeg_idle_secs" default:"30"`
	HLSSegmentMimeMode      SegmentMIMEMode `yaml:"hls_segment_mime_mode" default:"video-mp4"`
	HWAccel                 HWAccelMode     `yaml:"hw_accel" default:"auto"`
	TranscodeQueueWaitSecs  int             `yaml:"transcode_queue_wait_secs" default:"15"`
}

func (t TranscodeConfig) SegmentDuration() time.Duration {
	return time.Duration(t.HLSSegmentDuration) * time.Second
}

func (t TranscodeConfig) SessionTimeout() time.Duration {
	return time.Duration(t.HLSSessionTimeoutSecs) * time.Second
}

func (t TranscodeConfig) FfmpegIdleTimeout() time.Duration {
	return time.Duration(t.HLSFfmpegIdleSecs) * time.Second
}

func (t TranscodeConfig) QueueWait() time.Duration {
	return time.Duration(t.TranscodeQueueWaitSecs) * time.Second
}

type MetadataConfig struct {
	RateLimitPerSecond int    `yaml:"rate_limit_per_second" default:"4"`
	ProviderBaseURL    string `yaml:"provider_base_url" default:"https://api.themoviedb.org/3"`
	ProviderAPIKey     string `yaml:"provider_api_key" default:""`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs" default:"10"`
}

func (m MetadataConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutSecs) * time.Second
}

// Default returns a Config with every default value applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0,
		},
		Data: DataConfig{Dir: "./ferrite-data"},
		Scanner: ScannerConfig{
			ConcurrentProbes:        4,
			WatchDebounceSeconds:    2,
			EnrichConcurrencyMovies: 8,
			EnrichConcurrencyShows:  4,
			IncrementalBatchSize:    256,
		},
		Transcode: TranscodeConfig{
			MaxConcurrentTranscodes: 2,
			HLSSegmentDuration:      2,
			HLSSessionTimeoutSecs:   30,
			HLSFfmpegIdleSecs:       30,
			HLSSegmentMimeMode:      SegmentMIMEVideoMP4,
			HWAccel:                 HWAccelAuto,
			TranscodeQueueWaitSecs:  15,
		},
		Metadata: MetadataConfig{
			RateLimitPerSecond: 4,
			ProviderBaseURL:    "https://api.themoviedb.org/3",
			RequestTimeoutSecs: 10,
		},
	}
}

// ValidationError reports a single invalid field, matching the teacher's
// plugin-config validation error shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error in field '" + e.Field + "': " + e.Message
}

// Validate checks the configuration against the bounds implied by spec §6.
func (c *Config) Validate() error {
	if c.Scanner.ConcurrentProbes < 1 || c.Scanner.ConcurrentProbes > 64 {
		return &ValidationError{Field: "scanner.concurrent_probes", Message: "must be between 1 and 64"}
	}
	if c.Transcode.MaxConcurrentTranscodes < 1 {
		return &ValidationError{Field: "transcode.max_concurrent_transcodes", Message: "must be at least 1"}
	}
	if c.Transcode.HLSSegmentDuration < 1 {
		return &ValidationError{Field: "transcode.hls_segment_duration", Message: "must be at least 1 second"}
	}
	switch c.Transcode.HWAccel {
	case HWAccelAuto, HWAccelNVENC, HWAccelQSV, HWAccelVAAPI, HWAccelSoftware:
	default:
		return &ValidationError{Field: "transcode.hw_accel", Message: "must be one of auto, nvenc, qsv, vaapi, software"}
	}
	switch c.Transcode.HLSSegmentMimeMode {
	case SegmentMIMEVideoMP4, SegmentMIMEVideoISOSegment:
	default:
		return &ValidationError{Field: "transcode.hls_segment_mime_mode", Message: "must be video-mp4 or video-iso-segment"}
	}
	if c.Metadata.RateLimitPerSecond < 1 {
		return &ValidationError{Field: "metadata.rate_limit_per_second", Message: "must be at least 1"}
	}
	return nil
}

// Load reads a YAML config file over the defaults. An empty path or a
// missing file is not an error — Default() is returned unchanged, mirroring
// the teacher's tolerant config bootstrap in cmd/viewra/main.go.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath mirrors the teacher's VIEWRA_CONFIG_PATH / default-paths
// lookup in cmd/viewra/main.go, adapted to this project's env var and
// default filename.
func ResolvePath() string {
	if p := os.Getenv("FERRITE_CONFIG_PATH"); p != "" {
		return p
	}
	for _, candidate := range []string{"/app/ferrite-data/ferrite.yaml", "./ferrite.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
