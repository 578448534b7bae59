package ipc

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ActionLaunch = "launch"
	ActionClose  = "close"
	ActionStatus = "status"
)

type Request struct {
	RequestID        string   `json:"request_id"`
	Action           string   `json:"action"`
	Executable       string   `json:"executable,omitempty"`
	Arguments        []string `json:"arguments,omitempty"`
	WorkingDirectory string   `json:"working_directory,omitempty"`
	CreateNoWindow   bool     `json:"create_no_window,omitempty"`
	PID              uint32   `json:"pid,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
}

type Response struct {
	RequestID string `json:"request_id,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// ErrBusy is returned by Response.Err when the broker declined a launch
// because its previous process is still running.
var ErrBusy = errors.New("previous process still running")

// Err converts a non-ok response into an error.
func (r *Response) Err() error {
	switch r.Status {
	case "ok":
		return nil
	case "busy":
		return fmt.Errorf("%w: %s", ErrBusy, r.Message)
	default:
		return fmt.Errorf("broker %s: %s", r.Status, r.Message)
	}
}

type Handler func(Request) Response

type Server interface {
	Close() error
}

func NewRequest(action string) Request {
	return Request{
		RequestID: uuid.NewString(),
		Action:    action,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// EnsureRequestID assigns a request id when the client did not send one.
func (r *Request) EnsureRequestID() string {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	return r.RequestID
}
