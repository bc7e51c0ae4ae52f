// Command ticket-cli is an interactive client for the ticketline server.
//
// It reads one command per line from stdin, sends it to the server and
// prints the status code and payload of each response. The loop ends when
// the server acknowledges an exit (status 499) or closes the connection.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ticketline/ticketline/protocol"
)

func main() {
	host := pflag.StringP("host", "a", "127.0.0.1", "server address")
	port := pflag.IntP("port", "p", 8080, "server port")
	pflag.Parse()

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s\n", addr)

	stdin := bufio.NewScanner(os.Stdin)
	responses := bufio.NewReaderSize(conn, protocol.MaxMessageSize)

	for {
		fmt.Print("-> ")
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}

		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			return
		}

		data, err := responses.ReadBytes('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "server closed the connection")
			return
		}

		resp, err := protocol.ParseResponse(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad response: %v\n", err)
			continue
		}

		fmt.Printf("[%d] %v\n", resp.StatusCode, resp.Body)

		if resp.StatusCode == protocol.StatusDisconnect {
			return
		}
	}
}
