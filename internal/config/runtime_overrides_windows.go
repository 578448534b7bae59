//go:build windows

package config

import "golang.org/x/sys/windows/registry"

const installerBootstrapRegistryPath = `SOFTWARE\UserLaunch\Bootstrap`

func applyOSOverrides(c *Config) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, installerBootstrapRegistryPath, registry.QUERY_VALUE)
	if err != nil {
		return
	}
	defer k.Close()

	if v, _, err := k.GetStringValue("PipeName"); err == nil && v != "" {
		c.Broker.PipeName = v
	}
	if v, _, err := k.GetStringValue("AppExecutable"); err == nil && v != "" {
		c.App.Executable = v
		c.App.ImageName = imageName(v)
	}
}
