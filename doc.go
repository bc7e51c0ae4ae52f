// Package ticketline implements a multi-client ticket tracking service.
//
// The service accepts TCP connections, parses line-oriented shell-tokenized
// commands and performs CRUD operations on ticket records held in a key-value
// store, answering each request with a single-line JSON status response.
// Every ticket is owned by the identity that created it; only the owner can
// read, update or delete it.
//
// Basic usage:
//
//	svc, err := ticketline.New(
//		ticketline.WithListenAddr(":8080"),
//		ticketline.WithRedis("localhost:6379"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close()
//
//	if err := svc.Start(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// The library supports:
//
//   - One concurrent session per client connection
//   - Shell-style command tokenization with quoting
//   - Redis-backed or in-process ticket storage
//   - Per-ticket ownership authorization
//   - Prometheus instrumentation and structured logging
//   - Graceful shutdown
//
// The wire protocol is documented in the protocol package and the command
// set in the server package.
package ticketline
