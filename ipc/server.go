// Package ipc exposes the overlay dispatcher to external processes over a
// local Unix socket. The protocol is newline-delimited JSON: one request
// object per line, one response object per line, in order.
package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aubex/overlays/control"
)

const (
	// defaultReplyWait bounds how long a connection waits for the
	// dispatcher before reporting a timeout to the client.
	defaultReplyWait = 10 * time.Second

	// maxRequestBytes caps a single request line.
	maxRequestBytes = 64 * 1024
)

// DefaultSocketPath returns the well-known endpoint clients connect to
// unless an explicit path is configured.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "overlay_manager.sock")
}

// wireRequest is the decoded form of one client request line.
type wireRequest struct {
	Command string       `json:"command"`
	Args    control.Args `json:"args"`
}

// Server accepts one client at a time on a Unix socket and bridges its
// requests to the dispatcher, replying synchronously per request.
type Server struct {
	dispatcher *control.Dispatcher
	path       string
	listener   net.Listener
	done       chan struct{}
	replyWait  time.Duration
}

// NewServer creates a server for the given socket path. Call Start to begin
// accepting clients.
func NewServer(dispatcher *control.Dispatcher, path string) *Server {
	return &Server{
		dispatcher: dispatcher,
		path:       path,
		done:       make(chan struct{}),
		replyWait:  defaultReplyWait,
	}
}

// Start binds the socket and launches the accept loop. A stale socket file
// left behind by a previous run is removed first.
func (s *Server) Start() error {
	_ = os.Remove(s.path)
	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = listener
	go s.acceptLoop()
	return nil
}

// Close stops accepting clients and unblocks the accept loop. In-flight
// connection handling finishes on its own; wait on Done for that.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Done is closed when the accept loop has exited.
func (s *Server) Done() <-chan struct{} { return s.done }

// Path returns the socket path the server listens on.
func (s *Server) Path() string { return s.path }

func (s *Server) acceptLoop() {
	defer close(s.done)
	log.Printf("ipc: listening on %s", s.path)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Printf("ipc: listener closed")
				return
			}
			log.Printf("ipc: accept: %v", err)
			continue
		}
		log.Printf("ipc: client connected")
		s.serve(conn)
		log.Printf("ipc: client disconnected")
	}
}

// serve handles a single client until it disconnects. Protocol errors keep
// the connection open; transport errors end it and the accept loop picks up
// the next client.
func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxRequestBytes)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req wireRequest
		var resp control.Reply
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("ipc: invalid JSON from client: %v", err)
			resp = control.Errorf("Invalid JSON")
		} else {
			resp = s.process(req)
		}

		if err := encoder.Encode(resp); err != nil {
			if !recoverable(err) {
				log.Printf("ipc: write: %v", err)
			}
			return
		}
	}

	if err := scanner.Err(); err != nil && !recoverable(err) {
		log.Printf("ipc: read: %v", err)
	}
}

// process translates one wire request into a dispatcher command and waits
// for the reply with a bounded timeout. Unknown commands are rejected here
// so they answer immediately even while a break is buffering.
func (s *Server) process(req wireRequest) control.Reply {
	if !control.Known(req.Command) {
		return control.Errorf("Unknown command %s", req.Command)
	}

	reply := make(chan control.Reply, 1)
	s.dispatcher.Enqueue(control.Request{Name: req.Command, Args: req.Args, Reply: reply})

	select {
	case r := <-reply:
		return r
	case <-time.After(s.replyWait):
		return control.Errorf("Command timed out")
	}
}

// recoverable reports whether err is an expected end-of-connection
// condition rather than a real failure.
func recoverable(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
