package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// acceptBackoff is the pause after a failed Accept on a listener that is
// still open.
const acceptBackoff = 100 * time.Millisecond

// acceptLoop serves connections until l is closed. closed reports whether the
// owner has shut the server down.
func acceptLoop(l net.Listener, handler Handler, closed func() bool, backoff time.Duration) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if closed() || errors.Is(err, net.ErrClosed) {
				return
			}
			time.Sleep(backoff)
			continue
		}
		go func() {
			defer conn.Close()
			serveConn(conn, handler)
		}()
	}
}

// serveConn answers one JSON request on rw.
func serveConn(rw io.ReadWriter, handler Handler) {
	dec := json.NewDecoder(rw)
	enc := json.NewEncoder(rw)

	var req Request
	if err := dec.Decode(&req); err != nil {
		_ = enc.Encode(Response{Status: "error", Message: "invalid request"})
		return
	}
	id := req.EnsureRequestID()

	resp := handler(req)
	if resp.Status == "" {
		resp.Status = "ok"
	}
	if resp.RequestID == "" {
		resp.RequestID = id
	}
	_ = enc.Encode(resp)
}

// roundTrip writes req to rw and reads one response.
func roundTrip(rw io.ReadWriter, req Request) (*Response, error) {
	if err := json.NewEncoder(rw).Encode(req); err != nil {
		return nil, err
	}
	var resp Response
	if err := json.NewDecoder(rw).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.RequestID != "" && req.RequestID != "" && resp.RequestID != req.RequestID {
		return nil, fmt.Errorf("response for request %s, want %s", resp.RequestID, req.RequestID)
	}
	return &resp, nil
}
