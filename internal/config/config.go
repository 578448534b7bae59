package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"userlaunch/internal/uninstall"
)

const DefaultPipeName = `\\.\pipe\UserLaunchIPC`

type Config struct {
	Broker  BrokerConfig  `yaml:"broker"`
	App     AppConfig     `yaml:"app"`
	Install InstallConfig `yaml:"install"`
	Logging LoggingConfig `yaml:"logging"`
}

type BrokerConfig struct {
	ServiceName string `yaml:"service_name"`
	PipeName    string `yaml:"pipe_name"`
	// AllowedExecutables lists the only paths the broker will launch over the pipe.
	AllowedExecutables []string `yaml:"allowed_executables"`
	LaunchesPerMinute  int      `yaml:"launches_per_minute"`
}

// AppConfig describes the user-facing program the installer hands off to.
type AppConfig struct {
	Executable       string   `yaml:"executable"`
	Arguments        []string `yaml:"arguments"`
	WorkingDirectory string   `yaml:"working_directory"`
	CreateNoWindow   bool     `yaml:"create_no_window"`
	// ImageName defaults to the base name of Executable.
	ImageName       string `yaml:"image_name"`
	CloseTimeoutSec int    `yaml:"close_timeout_sec"`
}

type InstallConfig struct {
	Uninstall uninstall.Entry `yaml:"uninstall"`
	// InstallerImage is the sibling installer process to wait for after install.
	InstallerImage string `yaml:"installer_image"`
	WaitTimeoutSec int    `yaml:"wait_timeout_sec"`
	ManageService  bool   `yaml:"manage_service"`
}

type LoggingConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			ServiceName:       "UserLaunchBroker",
			PipeName:          DefaultPipeName,
			LaunchesPerMinute: 6,
		},
		App: AppConfig{
			CloseTimeoutSec: 15,
		},
		Install: InstallConfig{
			WaitTimeoutSec: 300,
			ManageService:  true,
		},
		Logging: LoggingConfig{
			File:       `C:\ProgramData\UserLaunch\logs\userlaunch.log`,
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// EnsureExists creates a default config file when it does not exist.
// It never overwrites an existing config.
func EnsureExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	cfg.ApplyRuntimeOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func (c *Config) Validate() error {
	if c.Broker.PipeName == "" {
		return errors.New("broker.pipe_name is required")
	}
	if !strings.HasPrefix(c.Broker.PipeName, `\\.\pipe\`) {
		return errors.New(`broker.pipe_name must start with \\.\pipe\`)
	}
	if c.Broker.LaunchesPerMinute <= 0 {
		return errors.New("broker.launches_per_minute must be > 0")
	}
	if c.App.CloseTimeoutSec <= 0 {
		return errors.New("app.close_timeout_sec must be > 0")
	}
	if c.Install.WaitTimeoutSec <= 0 {
		return errors.New("install.wait_timeout_sec must be > 0")
	}
	if c.Logging.MaxSizeMB <= 0 {
		return errors.New("logging.max_size_mb must be > 0")
	}
	if c.Logging.MaxBackups <= 0 {
		return errors.New("logging.max_backups must be > 0")
	}
	return nil
}

func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Broker.ServiceName == "" {
		c.Broker.ServiceName = d.Broker.ServiceName
	}
	if c.Broker.PipeName == "" {
		c.Broker.PipeName = d.Broker.PipeName
	}
	if c.Broker.LaunchesPerMinute == 0 {
		c.Broker.LaunchesPerMinute = d.Broker.LaunchesPerMinute
	}
	if c.App.CloseTimeoutSec == 0 {
		c.App.CloseTimeoutSec = d.App.CloseTimeoutSec
	}
	if c.App.ImageName == "" && c.App.Executable != "" {
		c.App.ImageName = imageName(c.App.Executable)
	}
	if c.Install.WaitTimeoutSec == 0 {
		c.Install.WaitTimeoutSec = d.Install.WaitTimeoutSec
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = d.Logging.MaxBackups
	}
}

// IsAllowedExecutable reports whether path is on the broker allow list.
// Windows paths are case-insensitive.
func (c *Config) IsAllowedExecutable(path string) bool {
	for _, p := range c.Broker.AllowedExecutables {
		if strings.EqualFold(filepath.Clean(p), filepath.Clean(path)) {
			return true
		}
	}
	return false
}

func imageName(exe string) string {
	if i := strings.LastIndexAny(exe, `\/`); i >= 0 {
		return exe[i+1:]
	}
	return exe
}
