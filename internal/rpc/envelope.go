// Package rpc defines the JSON-RPC 2.0 envelope shared by the HTTP
// /rpc endpoint and the stdio session adapter.
package rpc

import "encoding/json"

// Version is the protocol version stamped on every envelope.
const Version = "2.0"

// Error codes. Parse and invalid-request failures are distinguished
// from dispatch-level failures so clients can tell a garbled line from
// a rejected request.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// Request is an incoming JSON-RPC envelope. ID is kept raw so the
// response can echo it byte for byte, whatever its type.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Error is the error member of a response envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is an outgoing JSON-RPC envelope. Exactly one of Result and
// Error is populated; a nil ID serialises as null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResult builds a success envelope echoing id.
func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds an error envelope echoing id.
func NewError(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}
