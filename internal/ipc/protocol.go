package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frames are newline-delimited JSON-RPC 2.0 objects, one request and one
// response per call.
const protocolVersion = "2.0"

const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603

	// ErrCodeUnexpectedResult rejects a submit beyond the expected count
	ErrCodeUnexpectedResult = -1001
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a failed call
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("collector rejected call (%d): %s", e.Code, e.Message)
}

// NewRequest builds a request frame, encoding params when present
func NewRequest(id, method string, params any) (*Request, error) {
	req := &Request{JSONRPC: protocolVersion, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s params: %w", method, err)
		}
		req.Params = raw
	}
	return req, nil
}

// NewResponse builds a success frame
func NewResponse(id string, result any) (*Response, error) {
	resp := &Response{JSONRPC: protocolVersion, ID: id}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		resp.Result = raw
	}
	return resp, nil
}

// NewErrorResponse builds an error frame
func NewErrorResponse(id string, code int, message string) *Response {
	return &Response{
		JSONRPC: protocolVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

var (
	ErrSocketInUse      = errors.New("socket is already served by another collector")
	ErrAlreadyListening = errors.New("collector already listening")
)
