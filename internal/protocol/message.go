// Package protocol defines the JSON-RPC 2.0 message model the proxy speaks
// on both its client-facing and server-facing pipes.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the fixed JSON-RPC protocol tag every message carries.
const Version = "2.0"

// MessageID is either a signed integer or a string, matching JSON-RPC's
// untagged id type. The zero value is the integer variant holding 0.
type MessageID struct {
	isString bool
	num      int64
	str      string
}

// NewIntID builds an integer-variant id.
func NewIntID(n int64) MessageID {
	return MessageID{num: n}
}

// NewStringID builds a string-variant id.
func NewStringID(s string) MessageID {
	return MessageID{isString: true, str: s}
}

// IsString reports whether the id holds the string variant.
func (m MessageID) IsString() bool { return m.isString }

// Int returns the integer value; only meaningful when !IsString().
func (m MessageID) Int() int64 { return m.num }

// String renders the id for logging; it does not affect wire encoding.
func (m MessageID) String() string {
	if m.isString {
		return m.str
	}
	return fmt.Sprintf("%d", m.num)
}

// MarshalJSON preserves the original variant: a JSON number or a JSON string.
func (m MessageID) MarshalJSON() ([]byte, error) {
	if m.isString {
		return json.Marshal(m.str)
	}
	return json.Marshal(m.num)
}

// UnmarshalJSON selects the variant structurally from the raw token.
func (m *MessageID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty message id")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode string id: %w", err)
		}
		m.isString = true
		m.str = s
		return nil
	}
	var n int64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode numeric id: %w", err)
	}
	m.isString = false
	m.num = n
	return nil
}

// ResponseError is a JSON-RPC 2.0 error object.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Request is a message carrying an id and a method that expects a Response.
type Request struct {
	ID     MessageID       `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response carries either Result or Error for a prior Request's id, never
// both.
type Response struct {
	ID     MessageID       `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// Notification has a method and optional params but no id; it expects no
// reply.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// wireMessage is the superset shape used only for marshaling/unmarshaling;
// Message itself stays a clean tagged union for the rest of the codebase.
type wireMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// Message is a tagged union over Request, Response, and Notification.
// Exactly one of the three pointer fields is non-nil.
type Message struct {
	Request      *Request
	Response     *Response
	Notification *Notification
}

// NewRequestMessage wraps a Request as a Message.
func NewRequestMessage(r Request) Message { return Message{Request: &r} }

// NewResponseMessage wraps a Response as a Message.
func NewResponseMessage(r Response) Message { return Message{Response: &r} }

// NewNotificationMessage wraps a Notification as a Message.
func NewNotificationMessage(n Notification) Message { return Message{Notification: &n} }

// Method returns the message's method name, or "" for a Response.
func (m Message) Method() string {
	switch {
	case m.Request != nil:
		return m.Request.Method
	case m.Notification != nil:
		return m.Notification.Method
	default:
		return ""
	}
}

// ID returns the message's id and whether it has one (Requests and
// Responses do; Notifications don't).
func (m Message) ID() (MessageID, bool) {
	switch {
	case m.Request != nil:
		return m.Request.ID, true
	case m.Response != nil:
		return m.Response.ID, true
	default:
		return MessageID{}, false
	}
}

// Params returns the message's raw params, or nil for a Response.
func (m Message) Params() json.RawMessage {
	switch {
	case m.Request != nil:
		return m.Request.Params
	case m.Notification != nil:
		return m.Notification.Params
	default:
		return nil
	}
}

// MarshalJSON selects the JSON-RPC shape that matches the populated variant.
func (m Message) MarshalJSON() ([]byte, error) {
	switch {
	case m.Request != nil:
		idBytes, err := m.Request.ID.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireMessage{
			Jsonrpc: Version,
			ID:      idBytes,
			Method:  m.Request.Method,
			Params:  m.Request.Params,
		})
	case m.Response != nil:
		idBytes, err := m.Response.ID.MarshalJSON()
		if err != nil {
			return nil, err
		}
		w := wireMessage{
			Jsonrpc: Version,
			ID:      idBytes,
			Error:   m.Response.Error,
		}
		if m.Response.Error == nil {
			result := m.Response.Result
			if result == nil {
				result = json.RawMessage("null")
			}
			w.Result = result
		}
		return json.Marshal(w)
	case m.Notification != nil:
		return json.Marshal(wireMessage{
			Jsonrpc: Version,
			Method:  m.Notification.Method,
			Params:  m.Notification.Params,
		})
	default:
		return nil, fmt.Errorf("empty message has no populated variant")
	}
}

// UnmarshalJSON selects the variant structurally per spec.md §4.A: an id
// with a method is a Request, an id without a method is a Response, and a
// method without an id is a Notification.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode message envelope: %w", err)
	}

	hasID := len(w.ID) > 0 && string(w.ID) != "null"
	hasMethod := w.Method != ""

	switch {
	case hasID && hasMethod:
		var id MessageID
		if err := id.UnmarshalJSON(w.ID); err != nil {
			return err
		}
		m.Request = &Request{ID: id, Method: w.Method, Params: w.Params}
		m.Response = nil
		m.Notification = nil
		return nil
	case hasID && !hasMethod:
		var id MessageID
		if err := id.UnmarshalJSON(w.ID); err != nil {
			return err
		}
		m.Response = &Response{ID: id, Result: w.Result, Error: w.Error}
		m.Request = nil
		m.Notification = nil
		return nil
	case !hasID && hasMethod:
		m.Notification = &Notification{Method: w.Method, Params: w.Params}
		m.Request = nil
		m.Response = nil
		return nil
	default:
		return fmt.Errorf("message has neither id nor method")
	}
}
