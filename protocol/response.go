package protocol

import (
	"encoding/json"
	"fmt"
)

// Status codes carried in the status_code field of every response.
const (
	// StatusOK reports a successful read, update or delete
	StatusOK = 200

	// StatusCreated reports a successfully created ticket
	StatusCreated = 201

	// StatusBadRequest reports malformed arguments or an unmet precondition
	StatusBadRequest = 400

	// StatusUnauthenticated reports a ticket operation before login
	StatusUnauthenticated = 401

	// StatusForbidden reports an operation by a session that does not own the ticket
	StatusForbidden = 403

	// StatusNotFound reports an absent ticket or an unknown command
	StatusNotFound = 404

	// StatusDisconnect acknowledges a client exit; the client must stop
	// reading after receiving it
	StatusDisconnect = 499

	// StatusInternalError reports an unexpected server-side failure
	StatusInternalError = 500
)

// Response is a single server reply. Body is either a plain string or a
// flattened key/value representation of a ticket.
type Response struct {
	StatusCode int `json:"status_code"`
	Body       any `json:"response"`
}

// Encode renders the response as one JSON line terminated by a newline.
// json.Marshal never emits raw newlines, so the result is always a single
// line regardless of the body content.
func (r Response) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseResponse decodes a single response line received from the server
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
