package config

import "os"

// ApplyRuntimeOverrides applies environment/OS-specific overrides after YAML load
// and before validation.
func (c *Config) ApplyRuntimeOverrides() {
	applyEnvOverrides(c)
	applyOSOverrides(c)
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("USERLAUNCH_PIPE_NAME"); v != "" {
		c.Broker.PipeName = v
	}
	if v := os.Getenv("USERLAUNCH_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}
