// Package identity answers whether the current process runs as the
// session-less LocalSystem account.
package identity

// System reports on the identity of the current process.
type System struct{}

// Current returns the identity provider for the running process.
func Current() System { return System{} }

// IsSessionlessSystem reports whether the process token belongs to LocalSystem.
func (System) IsSessionlessSystem() (bool, error) {
	return isLocalSystem()
}
