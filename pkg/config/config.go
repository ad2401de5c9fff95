package config

import "time"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Output   OutputConfig   `mapstructure:"output"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type OutputConfig struct {
	Formats []string `mapstructure:"formats"`
	File    string   `mapstructure:"file"`
	Dir     string   `mapstructure:"dir"`
	Watch   bool     `mapstructure:"watch"`
}

// SchemaConfig filters what a database import picks up. Table names match
// case-insensitively.
type SchemaConfig struct {
	IncludeViews  bool     `mapstructure:"include_views"`
	ExcludeTables []string `mapstructure:"exclude_tables"`
	IncludeTables []string `mapstructure:"include_tables"`
}

// StorageConfig selects where diagrams and spreadsheets are read from and
// written to. Provider is "local" or "minio".
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	Root      string `mapstructure:"root"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the values used when neither a config file, the
// environment nor a flag sets them.
func Default() Config {
	return Config{
		Output: OutputConfig{
			Formats: []string{"mermaid"},
		},
		Storage: StorageConfig{
			Provider: "local",
			Root:     ".",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
