package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ServerConfig holds configuration for the IPC server
type ServerConfig struct {
	SocketPath string
	// Expected is the number of worker results the collector accepts
	Expected int
}

// Server collects partial results submitted by worker processes. Workers are
// the producers; the single consumer drains Results().
type Server struct {
	config   ServerConfig
	listener net.Listener
	logger   *log.Logger

	handlers map[string]handlerFunc

	results  chan *SubmitParams
	received atomic.Int64

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	runMu    sync.Mutex
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig, logger *log.Logger) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("socket path is required")
	}
	if cfg.Expected < 0 {
		return nil, fmt.Errorf("expected result count cannot be negative: %d", cfg.Expected)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[ipc] ", log.LstdFlags)
	}

	if err := cleanupStaleSocket(cfg.SocketPath); err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		handlers: make(map[string]handlerFunc),
		// Capacity equals the number of producers, so a submit never waits
		// on the consumer.
		results:  make(chan *SubmitParams, cfg.Expected),
		stopChan: make(chan struct{}),
	}

	s.registerDefaultHandlers()

	return s, nil
}

func cleanupStaleSocket(socketPath string) error {
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return nil
	}

	conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
	if err != nil {
		// Stale socket, remove it
		return os.Remove(socketPath)
	}
	_ = conn.Close()

	return ErrSocketInUse
}

func (s *Server) registerDefaultHandlers() {
	s.handlers[MethodStatusGet] = func(_ context.Context, _ json.RawMessage) (any, error) {
		received := int(s.received.Load())
		state := StateCollecting
		if received >= s.config.Expected {
			state = StateComplete
		}
		return &StatusResponse{
			State:    state,
			PID:      os.Getpid(),
			Expected: s.config.Expected,
			Received: received,
		}, nil
	}

	s.handlers[MethodResultSubmit] = func(_ context.Context, params json.RawMessage) (any, error) {
		if params == nil {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "missing params"}
		}

		var p SubmitParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid params: " + err.Error()}
		}

		select {
		case s.results <- &p:
		default:
			return nil, &RPCError{
				Code:    ErrCodeUnexpectedResult,
				Message: fmt.Sprintf("collector expects %d results, rejecting worker %d", s.config.Expected, p.WorkerID),
			}
		}

		return &SubmitResponse{Acknowledged: true, Received: int(s.received.Add(1))}, nil
	}
}

// Results returns the channel delivering submitted partial results in arrival order
func (s *Server) Results() <-chan *SubmitParams {
	return s.results
}

// Received returns how many results have been accepted so far
func (s *Server) Received() int {
	return int(s.received.Load())
}

// Start starts the IPC server
func (s *Server) Start(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return ErrAlreadyListening
	}
	s.running = true
	s.runMu.Unlock()

	listener, err := net.Listen("unix", s.config.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions (owner only)
	if err := os.Chmod(s.config.SocketPath, 0600); err != nil {
		_ = s.listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	// Accept loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-s.stopChan:
					return
				case <-ctx.Done():
					return
				default:
					s.logger.Printf("accept error: %v", err)
					continue
				}
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConnection(ctx, conn)
			}()
		}
	}()

	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	encoder := json.NewEncoder(conn)

	for {
		// Read line (newline-delimited JSON)
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				s.logger.Printf("read error: %v", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp := NewErrorResponse("", ErrCodeParse, "parse error: "+err.Error())
			if encErr := encoder.Encode(resp); encErr != nil {
				s.logger.Printf("encode error: %v", encErr)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Printf("encode error: %v", err)
			return
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != protocolVersion {
		return NewErrorResponse(req.ID, ErrCodeInvalidRequest, "jsonrpc must be \"2.0\"")
	}

	handler, ok := s.handlers[req.Method]
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return &Response{JSONRPC: protocolVersion, ID: req.ID, Error: rpcErr}
		}
		return NewErrorResponse(req.ID, ErrCodeInternal, err.Error())
	}

	resp, err := NewResponse(req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternal, "failed to create response")
	}

	return resp
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return nil
	}
	s.running = false
	s.runMu.Unlock()

	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	// Wait for connections with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := os.Remove(s.config.SocketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Printf("failed to remove socket: %v", err)
	}

	return nil
}
