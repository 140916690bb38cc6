package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     Logger
	Compressor CompressorConfig
	FFmpeg     FFmpegConfig
	Sqlite     SqliteConfig
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// CompressorConfig tunes the job orchestrator.
type CompressorConfig struct {
	// OutputDir is where compressed files are written before being
	// handed back to the caller.
	OutputDir string
	// StorageSafetyFactor multiplies the source file size to decide the
	// minimum free space required before a job is accepted.
	StorageSafetyFactor float64
	// ProgressInterval is the export progress sampling period.
	ProgressInterval time.Duration
	// FallbackRatio is the compressed/original size ratio at or above
	// which the original file is returned instead of the compressed one.
	FallbackRatio float64
}

type FFmpegConfig struct {
	FFmpegPath  string
	FFprobePath string
}

type SqliteConfig struct {
	Path string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Compressor.StorageSafetyFactor <= 0 {
		c.Compressor.StorageSafetyFactor = 2.0
	}
	if c.Compressor.ProgressInterval <= 0 {
		c.Compressor.ProgressInterval = 100 * time.Millisecond
	}
	if c.Compressor.FallbackRatio <= 0 {
		c.Compressor.FallbackRatio = 0.95
	}
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
	return &c, nil
}
