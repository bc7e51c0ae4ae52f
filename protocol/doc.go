// Package protocol implements the ticketline wire protocol: shell-tokenized
// request lines from clients and single-line JSON status responses from the
// server.
//
// A request is one line of text, tokenized with shell quoting rules so that
// arguments containing spaces can be quoted:
//
//	create -t "Broken login" -a alice -d "Cannot sign in"
//
// A response is one JSON object followed by a newline:
//
//	{"status_code":201,"response":{"id":1}}
//
// Responses are written in a single call and stay within MaxMessageSize for
// normal ticket sizes, so clients may treat each read of up to MaxMessageSize
// bytes as one whole message rather than a stream chunk.
package protocol
