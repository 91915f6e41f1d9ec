package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Detector DetectorConfig `mapstructure:"detector"`
	Gate     GateConfig     `mapstructure:"gate"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// MonitorConfig holds session telemetry settings.
type MonitorConfig struct {
	SampleIntervalSeconds int    `mapstructure:"sample_interval_seconds"`
	DataDir               string `mapstructure:"data_dir"`
	EnableC               bool   `mapstructure:"enable_c"`
	EnableCpp             bool   `mapstructure:"enable_cpp"`
}

// SampleInterval returns the sampling period as a duration.
func (m MonitorConfig) SampleInterval() time.Duration {
	return time.Duration(m.SampleIntervalSeconds) * time.Second
}

// DetectorConfig holds inference worker settings.
type DetectorConfig struct {
	WorkerPath      string `mapstructure:"worker_path"`
	ModelDir        string `mapstructure:"model_dir"`
	SocketPath      string `mapstructure:"socket_path"`
	ConnectAttempts int    `mapstructure:"connect_attempts"`
	SettleSeconds   int    `mapstructure:"settle_seconds"`
}

// GateConfig holds intervention delivery settings.
type GateConfig struct {
	AnxietyThreshold      float64           `mapstructure:"anxiety_threshold"`
	CooldownSeconds       int               `mapstructure:"cooldown_seconds"`
	ShowNotifications     bool              `mapstructure:"show_notifications"`
	PlaySounds            bool              `mapstructure:"play_sounds"`
	ErrorHints            map[string]string `mapstructure:"error_hints"`
	RelaxationMessages    []string          `mapstructure:"relaxation_messages"`
	EncouragementMessages []string          `mapstructure:"encouragement_messages"`
	SuccessMessages       []string          `mapstructure:"success_messages"`
}

// Cooldown returns the intervention cooldown as a duration.
func (g GateConfig) Cooldown() time.Duration {
	return time.Duration(g.CooldownSeconds) * time.Second
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5070")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "codecalm-db")

	// Monitor defaults
	v.SetDefault("monitor.sample_interval_seconds", 5)
	v.SetDefault("monitor.data_dir", "data")
	v.SetDefault("monitor.enable_c", true)
	v.SetDefault("monitor.enable_cpp", true)

	// Detector defaults
	v.SetDefault("detector.worker_path", "scripts/anxiety_worker.py")
	v.SetDefault("detector.model_dir", "models")
	v.SetDefault("detector.socket_path", "/tmp/codecalm-detector.sock")
	v.SetDefault("detector.connect_attempts", 30)
	v.SetDefault("detector.settle_seconds", 2)

	// Gate defaults
	v.SetDefault("gate.anxiety_threshold", 0.7)
	v.SetDefault("gate.cooldown_seconds", 300)
	v.SetDefault("gate.show_notifications", true)
	v.SetDefault("gate.play_sounds", false)
}

// Init initializes the configuration with Viper. onChange, if non-nil,
// runs after every successful hot reload.
func Init(projectRoot string, log *zap.Logger, onChange func()) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("CODECALM") // e.g., CODECALM_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		if onChange != nil {
			onChange()
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
