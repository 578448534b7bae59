//go:build windows

package identity

import "golang.org/x/sys/windows"

func isLocalSystem() (bool, error) {
	token, err := windows.OpenCurrentProcessToken()
	if err != nil {
		return false, err
	}
	defer token.Close()

	user, err := token.GetTokenUser()
	if err != nil {
		return false, err
	}
	return user.User.Sid.IsWellKnown(windows.WinLocalSystemSid), nil
}
