// Package lircdtest runs a scripted stand-in for lircd on a Unix socket.
package lircdtest

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Response is what the server writes after receiving a command.
type Response struct {
	// Raw is written verbatim.
	Raw string
	// Close hangs up after writing Raw.
	Close bool
}

// Server answers commands from a script. Commands without a scripted
// response get an ERROR reply, like lircd answers unknown directives.
type Server struct {
	Path string

	listener net.Listener
	wg       sync.WaitGroup

	mu       sync.Mutex
	script   map[string]Response
	conns    map[net.Conn]struct{}
	received []string
}

// New starts a server in a temporary directory. It is stopped when the test
// ends.
func New(t testing.TB) *Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lircd")
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen on %s: %v", path, err)
	}

	s := &Server{
		Path:     path,
		listener: listener,
		script:   make(map[string]Response),
		conns:    make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)
	go s.accept()

	t.Cleanup(s.Close)
	return s
}

// Handle scripts the response to command.
func (s *Server) Handle(command string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[command] = resp
}

// HandleReply scripts a well-formed reply to command.
func (s *Server) HandleReply(command string, success bool, data ...string) {
	s.Handle(command, Response{Raw: FormatReply(command, success, data...)})
}

// Received returns the command lines received so far.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Broadcast writes raw to every connected client.
func (s *Server) Broadcast(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Write([]byte(raw))
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close stops the server and hangs up on every client.
func (s *Server) Close() {
	s.listener.Close()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		command := strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.received = append(s.received, command)
		resp, ok := s.script[command]
		s.mu.Unlock()

		if !ok {
			resp = Response{Raw: FormatReply(command, false, fmt.Sprintf("unknown command: %q", command))}
		}

		if resp.Raw != "" {
			if _, err := conn.Write([]byte(resp.Raw)); err != nil && !errors.Is(err, net.ErrClosed) {
				return
			}
		}
		if resp.Close {
			return
		}
	}
}

// FormatReply formats a reply packet the way lircd does.
func FormatReply(command string, success bool, data ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN\n")
	b.WriteString(command + "\n")
	if success {
		b.WriteString("SUCCESS\n")
	} else {
		b.WriteString("ERROR\n")
	}
	if len(data) > 0 {
		fmt.Fprintf(&b, "DATA\n%d\n", len(data))
		for _, line := range data {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("END\n")
	return b.String()
}

// Sighup is the packet lircd sends to clients after being reloaded.
const Sighup = "BEGIN\nSIGHUP\nEND\n"
