//go:build !windows

package launcher

import "time"

type unsupportedAPI struct{}

func defaultNativeAPI() nativeAPI { return unsupportedAPI{} }

func (unsupportedAPI) EnumerateSessions() ([]Session, error) { return nil, ErrUnsupported }

func (unsupportedAPI) ActiveConsoleSessionID() uint32 { return InvalidSessionID }

func (unsupportedAPI) QueryUserToken(uint32) (Handle, error) { return 0, ErrUnsupported }

func (unsupportedAPI) DuplicateToken(Handle, uint32, ImpersonationLevel, TokenType) (Handle, error) {
	return 0, ErrUnsupported
}

func (unsupportedAPI) CreateEnvironmentBlock(Handle, bool) (Handle, error) { return 0, ErrUnsupported }

func (unsupportedAPI) DestroyEnvironmentBlock(Handle) error { return ErrUnsupported }

func (unsupportedAPI) CreateProcessAsUser(Handle, createSpec) (LaunchResult, error) {
	return LaunchResult{}, ErrUnsupported
}

func (unsupportedAPI) CloseHandle(Handle) error { return ErrUnsupported }

func (unsupportedAPI) WaitProcess(Handle, time.Duration) (bool, error) { return false, ErrUnsupported }

func (unsupportedAPI) ExitCode(Handle) (uint32, error) { return 0, ErrUnsupported }

func (unsupportedAPI) TerminateProcess(Handle, uint32) error { return ErrUnsupported }
