package launcher

import (
	"errors"
	"strings"
	"syscall"
)

// launchAsUser creates the process under token with env as its environment.
// env is destroyed before returning on every path.
func launchAsUser(api nativeAPI, token, env *owned, req LaunchRequest) (*Process, error) {
	defer env.Close()

	flags := CreateUnicodeEnvironment
	if req.CreateNoWindow {
		flags |= CreateNoWindow
	}

	spec := createSpec{
		ApplicationName:  req.ExecutablePath,
		CommandLine:      commandLine(req.ExecutablePath, req.Arguments),
		WorkingDirectory: req.WorkingDirectory,
		Flags:            flags,
		Environment:      env.Handle(),
		InheritHandles:   true,
		Startup: startupInfo{
			ShowWindow: ShowHide,
			// Empty means the default desktop of the target session. A fixed
			// "winsta0\default" breaks in some service contexts.
			Desktop: "",
		},
	}

	res, err := api.CreateProcessAsUser(token.Handle(), spec)
	if err != nil {
		return nil, &ProcessCreationError{Code: errorCode(err), Err: err}
	}
	return newElevatedProcess(api, res), nil
}

// commandLine joins the executable's base name, extension stripped, with the
// arguments. Arguments are not quoted.
func commandLine(exePath string, args []string) string {
	name := exePath
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	parts = append(parts, args...)
	return strings.Join(parts, " ")
}

func errorCode(err error) uint32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}
