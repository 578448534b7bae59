// Package uninstall maintains the Add/Remove Programs entry of an installed app.
package uninstall

import (
	"errors"
	"strings"
)

// RegistryBase is the HKLM key that holds every uninstall entry.
const RegistryBase = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`

// Entry is one uninstall registry entry. Key is the subkey name under RegistryBase.
type Entry struct {
	Key             string `yaml:"key"`
	DisplayName     string `yaml:"display_name"`
	DisplayVersion  string `yaml:"display_version"`
	Publisher       string `yaml:"publisher"`
	InstallLocation string `yaml:"install_location"`
	UninstallString string `yaml:"uninstall_string"`
	DisplayIcon     string `yaml:"display_icon"`
}

func (e Entry) path() (string, error) {
	key := strings.TrimSpace(e.Key)
	if key == "" {
		return "", errors.New("uninstall key is required")
	}
	if strings.ContainsAny(key, `\/`) {
		return "", errors.New("uninstall key must not contain path separators")
	}
	return RegistryBase + `\` + key, nil
}

// values returns the string values to write, skipping empty fields.
func (e Entry) values() map[string]string {
	all := map[string]string{
		"DisplayName":     e.DisplayName,
		"DisplayVersion":  e.DisplayVersion,
		"Publisher":       e.Publisher,
		"InstallLocation": e.InstallLocation,
		"UninstallString": e.UninstallString,
		"DisplayIcon":     e.DisplayIcon,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Write creates or updates the entry.
func Write(e Entry) error {
	p, err := e.path()
	if err != nil {
		return err
	}
	if e.DisplayName == "" {
		return errors.New("display name is required")
	}
	return writeValues(p, e.values())
}

// Remove deletes the entry. A missing entry is not an error.
func Remove(key string) error {
	p, err := Entry{Key: key}.path()
	if err != nil {
		return err
	}
	return removeKey(p)
}
