package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Vigil configuration
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Collectors CollectorsConfig `mapstructure:"collectors" yaml:"collectors"`
	Probes     ProbesConfig     `mapstructure:"probes" yaml:"probes"`
	Network    NetworkConfig    `mapstructure:"network" yaml:"network"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// StorageConfig controls where snapshots and the status record live
type StorageConfig struct {
	BaseDir       string        `mapstructure:"base_dir" yaml:"base_dir"`
	StatusFile    string        `mapstructure:"status_file" yaml:"status_file"`
	RetentionDays int           `mapstructure:"retention_days" yaml:"retention_days"`
	Retention     time.Duration `mapstructure:"-" yaml:"-"`
}

// CollectorsConfig contains per-category collector configuration
type CollectorsConfig struct {
	BinaryList     []string `mapstructure:"binary_list" yaml:"binary_list"`
	SUIDRoots      []string `mapstructure:"suid_roots" yaml:"suid_roots"`
	PasswdFile     string   `mapstructure:"passwd_file" yaml:"passwd_file"`
	MinUID         int      `mapstructure:"min_uid" yaml:"min_uid"`
	AuthorizedKeys string   `mapstructure:"authorized_keys" yaml:"authorized_keys"`
	PeerInterface  string   `mapstructure:"peer_interface" yaml:"peer_interface"`
}

// ProbesConfig contains health probe configuration
type ProbesConfig struct {
	DiskPath       string        `mapstructure:"disk_path" yaml:"disk_path"`
	ThermalZone    string        `mapstructure:"thermal_zone" yaml:"thermal_zone"`
	Services       []string      `mapstructure:"services" yaml:"services"`
	Tools          []string      `mapstructure:"tools" yaml:"tools"`
	AuthService    string        `mapstructure:"auth_service" yaml:"auth_service"`
	AuthWindow     time.Duration `mapstructure:"auth_window" yaml:"auth_window"`
	Fail2banJail   string        `mapstructure:"fail2ban_jail" yaml:"fail2ban_jail"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// NetworkConfig controls the bring-up state machine
type NetworkConfig struct {
	Interface      string        `mapstructure:"interface" yaml:"interface"`
	ManagedService string        `mapstructure:"managed_service" yaml:"managed_service"`
	SettleDelay    time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	StateFile      string        `mapstructure:"state_file" yaml:"state_file"`
	TriggerMarker  string        `mapstructure:"trigger_marker" yaml:"trigger_marker"`
}

// WatchConfig controls the cooperative scheduler
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			BaseDir:       filepath.Join(homeDir, ".vigil"),
			StatusFile:    filepath.Join(homeDir, ".vigil", "security-status.json"),
			RetentionDays: 30,
		},
		Collectors: CollectorsConfig{
			BinaryList: []string{
				"/usr/bin/ssh", "/usr/sbin/sshd", "/usr/bin/sudo",
				"/usr/bin/su", "/usr/bin/passwd", "/usr/bin/login",
			},
			SUIDRoots:      []string{"/usr/bin", "/usr/sbin", "/usr/local/bin"},
			PasswdFile:     "/etc/passwd",
			MinUID:         1000,
			AuthorizedKeys: filepath.Join(homeDir, ".ssh", "authorized_keys"),
			PeerInterface:  "wlan0",
		},
		Probes: ProbesConfig{
			DiskPath:       "/",
			ThermalZone:    "/sys/class/thermal/thermal_zone0/temp",
			Services:       []string{"ssh", "tailscaled", "fail2ban", "suricata", "auditd"},
			Tools:          []string{"fail2ban-client", "suricata", "rkhunter", "auditctl"},
			AuthService:    "ssh",
			AuthWindow:     6 * time.Hour,
			Fail2banJail:   "sshd",
			CommandTimeout: 10 * time.Second,
		},
		Network: NetworkConfig{
			Interface:      "wlan0",
			ManagedService: "NetworkManager",
			SettleDelay:    8 * time.Second,
			StateFile:      filepath.Join(homeDir, ".vigil", "netup-state"),
			TriggerMarker:  filepath.Join(homeDir, ".vigil", "firstboot-pending"),
		},
		Watch: WatchConfig{
			Interval: 5 * time.Minute,
		},
		Output: OutputConfig{
			Format:  "table",
			NoColor: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the config file and environment
func Load() (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".vigil"))
	}
	viper.AddConfigPath("/etc/vigil")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("VIGIL")
	viper.AutomaticEnv()
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error - we'll use defaults
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Storage.Retention = time.Duration(config.Storage.RetentionDays) * 24 * time.Hour
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Storage.RetentionDays < 1 {
		return fmt.Errorf("storage.retention_days must be at least 1")
	}
	if c.Watch.Interval < 5*time.Second {
		return fmt.Errorf("watch.interval must be at least 5s")
	}
	if c.Network.SettleDelay < 0 {
		return fmt.Errorf("network.settle_delay must not be negative")
	}
	return nil
}

// ExpandPaths expands ~ in configured paths to the user home directory
func (c *Config) ExpandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to determine home directory: %w", err)
	}
	expand := func(p string) string {
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return p
	}
	c.Storage.BaseDir = expand(c.Storage.BaseDir)
	c.Storage.StatusFile = expand(c.Storage.StatusFile)
	c.Collectors.AuthorizedKeys = expand(c.Collectors.AuthorizedKeys)
	c.Network.StateFile = expand(c.Network.StateFile)
	c.Network.TriggerMarker = expand(c.Network.TriggerMarker)
	return nil
}
