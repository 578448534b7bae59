//go:build windows

package ipc

import (
	"net"
	"sync"
	"time"

	"github.com/Microsoft/go-winio"
)

const dialTimeout = 5 * time.Second

// Only LocalSystem and Administrators may connect.
const pipeSecurityDescriptor = "D:P(A;;GA;;;SY)(A;;GA;;;BA)"

type pipeServer struct {
	listener net.Listener
	closeCh  chan struct{}
	once     sync.Once
}

func StartPipeServer(pipeName string, handler Handler) (Server, error) {
	config := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
		MessageMode:        true,
		InputBufferSize:    65536,
		OutputBufferSize:   65536,
	}

	listener, err := winio.ListenPipe(pipeName, config)
	if err != nil {
		return nil, err
	}

	s := &pipeServer{listener: listener, closeCh: make(chan struct{})}
	go acceptLoop(listener, handler, s.closed, acceptBackoff)
	return s, nil
}

func (s *pipeServer) closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

func (s *pipeServer) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closeCh)
		err = s.listener.Close()
	})
	return err
}

// SendRequest sends one request to the broker listening on pipeName.
func SendRequest(pipeName string, req Request) (*Response, error) {
	timeout := dialTimeout
	conn, err := winio.DialPipe(pipeName, &timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return roundTrip(conn, req)
}
