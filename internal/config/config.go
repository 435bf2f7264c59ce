package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "markers.cfg.json"

// MarkerConfig holds marker lifetime and appearance settings
type MarkerConfig struct {
	Duration       time.Duration `json:"duration" mapstructure:"duration"`
	UpdateInterval time.Duration `json:"updateInterval" mapstructure:"updateInterval"`
	FadeOut        time.Duration `json:"fadeOut" mapstructure:"fadeOut"`
	Parent         string        `json:"parent" mapstructure:"parent"`
	BodyImage      string        `json:"bodyImage" mapstructure:"bodyImage"`
	IconImage      string        `json:"iconImage" mapstructure:"iconImage"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage settings. An empty Path keeps the database in memory.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the trace backend
type StorageConfig struct {
	Type          string        `json:"type" mapstructure:"type"`
	BatchInterval time.Duration `json:"batchInterval" mapstructure:"batchInterval"`
	Memory        MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Host      string `json:"host" mapstructure:"host"`
	Port      string `json:"port" mapstructure:"port"`
	Protocol  string `json:"protocol" mapstructure:"protocol"`
	Token     string `json:"token" mapstructure:"token"`
	Org       string `json:"org" mapstructure:"org"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	BackupDir string `json:"backupDir" mapstructure:"backupDir"`
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// RemoteConfig holds the remote renderer connection
type RemoteConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// MonitorConfig holds status file settings
type MonitorConfig struct {
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
}

// CameraConfig holds the headless camera settings
type CameraConfig struct {
	Zoom   float64 `json:"zoom" mapstructure:"zoom"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// SetDefaults registers default values for every known key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./markerlogs")

	viper.SetDefault("screen.width", 1920)
	viper.SetDefault("screen.height", 1080)

	viper.SetDefault("camera.zoom", 1.0)

	viper.SetDefault("marker.duration", "5s")
	viper.SetDefault("marker.updateInterval", "50ms")
	viper.SetDefault("marker.fadeOut", "1s")
	viper.SetDefault("marker.parent", "markerContainer")
	viper.SetDefault("marker.bodyImage", "custom_game/marker.tga")
	viper.SetDefault("marker.iconImage", "custom_game/marker_icon.tga")

	viper.SetDefault("scheduler.resolution", "10ms")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.batchInterval", "1s")
	viper.SetDefault("storage.memory.outputDir", "./traces")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "markers")

	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "markers")
	viper.SetDefault("influx.bucket", "marker_traces")
	viper.SetDefault("influx.backupDir", "./traces")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "markers")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("remote.enabled", false)
	viper.SetDefault("remote.url", "ws://localhost:5000/overlay")
	viper.SetDefault("remote.secret", "")

	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusFile", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func GetMarkerConfig() MarkerConfig {
	return MarkerConfig{
		Duration:       viper.GetDuration("marker.duration"),
		UpdateInterval: viper.GetDuration("marker.updateInterval"),
		FadeOut:        viper.GetDuration("marker.fadeOut"),
		Parent:         viper.GetString("marker.parent"),
		BodyImage:      viper.GetString("marker.bodyImage"),
		IconImage:      viper.GetString("marker.iconImage"),
	}
}

func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		BatchInterval: viper.GetDuration("storage.batchInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Host:      viper.GetString("influx.host"),
		Port:      viper.GetString("influx.port"),
		Protocol:  viper.GetString("influx.protocol"),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		Bucket:    viper.GetString("influx.bucket"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

func GetRemoteConfig() RemoteConfig {
	return RemoteConfig{
		Enabled: viper.GetBool("remote.enabled"),
		URL:     viper.GetString("remote.url"),
		Secret:  viper.GetString("remote.secret"),
	}
}

func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}

func GetCameraConfig() CameraConfig {
	return CameraConfig{
		Zoom:   viper.GetFloat64("camera.zoom"),
		Width:  viper.GetFloat64("screen.width"),
		Height: viper.GetFloat64("screen.height"),
	}
}
