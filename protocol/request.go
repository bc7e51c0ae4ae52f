package protocol

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
)

// MaxMessageSize is the framing bound for a single protocol message in
// either direction. Clients read responses with a buffer of this size and
// must receive each response as one complete unit.
const MaxMessageSize = 4096

// ErrMalformed indicates a request line that could not be tokenized
var ErrMalformed = errors.New("malformed request")

// Request is a single parsed client command: the command name followed by
// its raw arguments. Requests are transient and never persisted.
type Request struct {
	Name string
	Args []string
}

// ParseRequest tokenizes a raw command line using shell quoting rules.
// It fails with an error wrapping ErrMalformed when the line is empty or
// contains unbalanced quotes.
func ParseRequest(line string) (*Request, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrMalformed)
	}

	return &Request{
		Name: tokens[0],
		Args: tokens[1:],
	}, nil
}
