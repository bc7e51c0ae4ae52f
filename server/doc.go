// Package server provides the TCP front end of the ticket service: the
// connection acceptor, the per-client session and the command dispatcher.
//
// Each accepted connection is served by its own goroutine. Within a session
// requests are processed strictly in the order received; the response to
// request N is written before request N+1 is read. Sessions share nothing
// except the ticket store, which is safe for concurrent use.
//
// The command set:
//
//	login [-i <id>]
//	create -t <title> -a <author> -d <description>
//	find -i <id>
//	update -i <id> [-t <title>] [-d <description>] [-s <status>]
//	delete -i <id>
//	exit
//
// Ticket commands require a prior login. A session authenticates at most
// once; its identity never changes afterwards. Tickets may only be read,
// updated or deleted by the identity that created them.
package server
