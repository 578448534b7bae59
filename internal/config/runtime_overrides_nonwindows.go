//go:build !windows

package config

func applyOSOverrides(*Config) {}
