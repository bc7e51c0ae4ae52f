package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/ticketline/ticketline/protocol"
	"github.com/ticketline/ticketline/ticket"
)

// dispatch parses and executes one command line. It returns the response
// and whether the session must terminate after sending it. Handler errors
// are converted to responses here; they never escape to crash the loop.
func (s *Session) dispatch(logger *slog.Logger, line string) (protocol.Response, bool) {
	start := time.Now()

	req, err := protocol.ParseRequest(line)
	if err != nil {
		if s.server.metrics != nil {
			s.server.metrics.ParseErrors.Inc()
		}
		s.server.countError()
		logger.Debug("malformed request", slog.String("error", err.Error()))
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       err.Error(),
		}, false
	}

	s.server.countCommand()
	logger.Debug("executing command", slog.String("command", req.Name))

	var resp protocol.Response
	terminal := false
	known := true

	switch req.Name {
	case "login":
		resp = s.handleLogin(req.Args)
	case "create":
		resp = s.requireAuth(req.Args, s.handleCreate)
	case "find":
		resp = s.requireAuth(req.Args, s.handleFind)
	case "update":
		resp = s.requireAuth(req.Args, s.handleUpdate)
	case "delete":
		resp = s.requireAuth(req.Args, s.handleDelete)
	case "exit":
		// Arguments are ignored; exit always succeeds
		resp = protocol.Response{
			StatusCode: protocol.StatusDisconnect,
			Body:       "client disconnecting",
		}
		terminal = true
	default:
		known = false
		resp = protocol.Response{
			StatusCode: protocol.StatusNotFound,
			Body:       fmt.Sprintf("command not found: %s", req.Name),
		}
	}

	if resp.StatusCode >= protocol.StatusBadRequest && resp.StatusCode != protocol.StatusDisconnect {
		s.server.countError()
	}

	if m := s.server.metrics; m != nil {
		name := req.Name
		if !known {
			name = "unknown"
		}
		m.CommandsTotal.WithLabelValues(name, strconv.Itoa(resp.StatusCode)).Inc()
		m.CommandDuration.Observe(time.Since(start).Seconds())
	}

	return resp, terminal
}

// requireAuth rejects ticket operations from unauthenticated sessions
func (s *Session) requireAuth(args []string, handler func([]string) protocol.Response) protocol.Response {
	if !s.authenticated() {
		return protocol.Response{
			StatusCode: protocol.StatusUnauthenticated,
			Body:       "authentication required: login first",
		}
	}
	return handler(args)
}

// newFlagSet builds a per-command flag parser that reports errors instead
// of printing usage or exiting.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// invalidArgs converts a flag parse failure into a 400 response
func invalidArgs(err error) protocol.Response {
	return protocol.Response{
		StatusCode: protocol.StatusBadRequest,
		Body:       fmt.Sprintf("invalid arguments: %v", err),
	}
}

// internalError logs a store failure and masks it from the client
func (s *Session) internalError(op string, err error) protocol.Response {
	s.server.logger.Error(op+" failed",
		slog.String("peer", s.peer),
		slog.String("error", err.Error()),
	)
	if s.server.metrics != nil {
		s.server.metrics.StoreErrors.Inc()
	}
	return protocol.Response{
		StatusCode: protocol.StatusInternalError,
		Body:       "internal server error",
	}
}

// handleLogin authenticates the session. With -i the client-supplied
// identity is trusted as-is; without it a fresh identity is generated.
// A session may log in at most once.
func (s *Session) handleLogin(args []string) protocol.Response {
	fs := newFlagSet("login")
	id := fs.StringP("id", "i", "", "existing identity to log in as")
	if err := fs.Parse(args); err != nil {
		return invalidArgs(err)
	}

	if s.authenticated() {
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       "already authenticated as " + s.identity,
		}
	}

	identity := *id
	if identity == "" {
		identity = uuid.NewString()
	}
	s.identity = identity

	return protocol.Response{
		StatusCode: protocol.StatusOK,
		Body:       map[string]string{"identity": identity},
	}
}

// handleCreate persists a new ticket owned by the session's identity
func (s *Session) handleCreate(args []string) protocol.Response {
	fs := newFlagSet("create")
	title := fs.StringP("title", "t", "", "ticket title")
	author := fs.StringP("author", "a", "", "ticket author")
	description := fs.StringP("description", "d", "", "ticket description")
	if err := fs.Parse(args); err != nil {
		return invalidArgs(err)
	}

	if !fs.Changed("title") || !fs.Changed("author") || !fs.Changed("description") {
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       "title, author and description are required",
		}
	}

	t := &ticket.Ticket{
		Title:       *title,
		Author:      *author,
		Description: *description,
		Status:      ticket.StatusPending,
		Owner:       s.identity,
	}

	id, err := s.server.tickets.Create(s.ctx, t)
	if err != nil {
		return s.internalError("create ticket", err)
	}

	return protocol.Response{
		StatusCode: protocol.StatusCreated,
		Body:       map[string]int64{"id": id},
	}
}

// loadOwnedTicket fetches a ticket and enforces the ownership check shared
// by find, update and delete. The error response leaks nothing beyond the
// status code.
func (s *Session) loadOwnedTicket(op string, id int64) (*ticket.Ticket, protocol.Response, bool) {
	t, err := s.server.tickets.Get(s.ctx, id)
	if errors.Is(err, ticket.ErrNotFound) {
		return nil, protocol.Response{
			StatusCode: protocol.StatusNotFound,
			Body:       "ticket not found",
		}, false
	}
	if err != nil {
		return nil, s.internalError(op, err), false
	}

	if t.Owner != s.identity {
		return nil, protocol.Response{
			StatusCode: protocol.StatusForbidden,
			Body:       "access denied",
		}, false
	}

	return t, protocol.Response{}, true
}

// handleFind returns the full record of a ticket owned by the session
func (s *Session) handleFind(args []string) protocol.Response {
	fs := newFlagSet("find")
	id := fs.Int64P("id", "i", 0, "ticket id")
	if err := fs.Parse(args); err != nil {
		return invalidArgs(err)
	}
	if !fs.Changed("id") {
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       "ticket id is required",
		}
	}

	t, resp, ok := s.loadOwnedTicket("find ticket", *id)
	if !ok {
		return resp
	}

	return protocol.Response{
		StatusCode: protocol.StatusOK,
		Body:       t.ResponseMap(),
	}
}

// handleUpdate overwrites the supplied mutable fields of an owned ticket.
// The id, owner and creation time are never mutable through this path.
func (s *Session) handleUpdate(args []string) protocol.Response {
	fs := newFlagSet("update")
	id := fs.Int64P("id", "i", 0, "ticket id")
	title := fs.StringP("title", "t", "", "new title")
	description := fs.StringP("description", "d", "", "new description")
	status := fs.StringP("status", "s", "", "new status")
	if err := fs.Parse(args); err != nil {
		return invalidArgs(err)
	}
	if !fs.Changed("id") {
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       "ticket id is required",
		}
	}

	fields := make(map[string]string)
	if fs.Changed("title") {
		fields[ticket.FieldTitle] = *title
	}
	if fs.Changed("description") {
		fields[ticket.FieldDescription] = *description
	}
	if fs.Changed("status") {
		fields[ticket.FieldStatus] = *status
	}
	if len(fields) == 0 {
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       "nothing to update",
		}
	}

	if _, resp, ok := s.loadOwnedTicket("update ticket", *id); !ok {
		return resp
	}

	if err := s.server.tickets.Update(s.ctx, *id, fields); err != nil {
		return s.internalError("update ticket", err)
	}

	return protocol.Response{
		StatusCode: protocol.StatusOK,
		Body:       "ticket updated",
	}
}

// handleDelete removes an owned ticket; a second delete reports not found
func (s *Session) handleDelete(args []string) protocol.Response {
	fs := newFlagSet("delete")
	id := fs.Int64P("id", "i", 0, "ticket id")
	if err := fs.Parse(args); err != nil {
		return invalidArgs(err)
	}
	if !fs.Changed("id") {
		return protocol.Response{
			StatusCode: protocol.StatusBadRequest,
			Body:       "ticket id is required",
		}
	}

	if _, resp, ok := s.loadOwnedTicket("delete ticket", *id); !ok {
		return resp
	}

	if err := s.server.tickets.Delete(s.ctx, *id); err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			// Lost a race with a concurrent delete
			return protocol.Response{
				StatusCode: protocol.StatusNotFound,
				Body:       "ticket not found",
			}
		}
		return s.internalError("delete ticket", err)
	}

	return protocol.Response{
		StatusCode: protocol.StatusOK,
		Body:       "ticket deleted",
	}
}
