package launcher

import "fmt"

// Handle is an opaque native handle value (token, environment block, process, thread).
type Handle uintptr

// InvalidSessionID is returned by the console session query when no session is
// attached to the physical console.
const InvalidSessionID uint32 = 0xFFFFFFFF

// ConnectState mirrors WTS_CONNECTSTATE_CLASS.
type ConnectState uint32

const (
	StateActive ConnectState = iota
	StateConnected
	StateConnectQuery
	StateShadow
	StateDisconnected
	StateIdle
	StateListen
	StateReset
	StateDown
	StateInit
)

func (s ConnectState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateConnected:
		return "connected"
	case StateConnectQuery:
		return "connect_query"
	case StateShadow:
		return "shadow"
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateListen:
		return "listen"
	case StateReset:
		return "reset"
	case StateDown:
		return "down"
	case StateInit:
		return "init"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// ImpersonationLevel mirrors SECURITY_IMPERSONATION_LEVEL.
type ImpersonationLevel uint32

const (
	SecurityAnonymous ImpersonationLevel = iota
	SecurityIdentification
	// SecurityImpersonation lets the holder act as the user on the local host
	// only; it cannot be delegated to remote hosts.
	SecurityImpersonation
	SecurityDelegation
)

// TokenType mirrors TOKEN_TYPE.
type TokenType uint32

const (
	TokenPrimary TokenType = iota + 1
	TokenImpersonation
)

// CreationFlags is the process creation flag set.
type CreationFlags uint32

const (
	CreateNewConsole         CreationFlags = 0x00000010
	CreateUnicodeEnvironment CreationFlags = 0x00000400
	CreateNoWindow           CreationFlags = 0x08000000
)

func (f CreationFlags) Has(flag CreationFlags) bool {
	return f&flag == flag
}

// ShowState is the STARTUPINFO wShowWindow value.
type ShowState uint16

const (
	ShowHide   ShowState = 0
	ShowNormal ShowState = 1
)

// maximumAllowed is the MAXIMUM_ALLOWED access mask.
const maximumAllowed uint32 = 0x02000000

// Session is one entry from session enumeration.
type Session struct {
	ID    uint32
	Name  string
	State ConnectState
}

// LaunchRequest describes the process to start. It is not modified by the launcher.
type LaunchRequest struct {
	ExecutablePath   string
	Arguments        []string
	WorkingDirectory string
	CreateNoWindow   bool
	UseShellExecute  bool
}

// LaunchResult is what the native creation call hands back.
type LaunchResult struct {
	ProcessID     uint32
	ThreadID      uint32
	ProcessHandle Handle
	ThreadHandle  Handle
}

// startupInfo is the layout-agnostic startup descriptor; the binding turns it
// into a STARTUPINFO.
type startupInfo struct {
	ShowWindow    ShowState
	Desktop       string
	UseStdHandles bool
}

// createSpec carries every argument of the create-process-as-user call.
type createSpec struct {
	ApplicationName  string
	CommandLine      string
	WorkingDirectory string
	Flags            CreationFlags
	Environment      Handle
	InheritHandles   bool
	Startup          startupInfo
}

// IdentityProvider reports whether the caller runs as the privileged,
// session-less system identity.
type IdentityProvider interface {
	IsSessionlessSystem() (bool, error)
}

// IdentityFunc adapts a plain function to IdentityProvider.
type IdentityFunc func() (bool, error)

func (f IdentityFunc) IsSessionlessSystem() (bool, error) { return f() }
