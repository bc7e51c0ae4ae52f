package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ticketline/ticketline/metrics"
	"github.com/ticketline/ticketline/storage"
)

// startTestServer runs a server on a random port backed by the in-process
// store and returns its address.
func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	srv := New(Config{
		Addr:    "127.0.0.1:0",
		Metrics: metrics.New(prometheus.NewRegistry()),
	}, storage.NewMemory())

	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		srv.Stop()
	})

	return srv, srv.Addr()
}

// testClient is a minimal line-protocol client for tests
type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", addr, err)
	}
	t.Cleanup(func() {
		conn.Close()
	})

	return &testClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// send writes one command line and reads one response
func (c *testClient) send(t *testing.T, line string) (int, any) {
	t.Helper()

	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("send %q failed: %v", line, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	data, err := c.reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("no response to %q: %v", line, err)
	}

	var resp struct {
		StatusCode int `json:"status_code"`
		Response   any `json:"response"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("bad response to %q: %v (raw %q)", line, err, data)
	}
	return resp.StatusCode, resp.Response
}

// login authenticates the client under a fixed identity
func (c *testClient) login(t *testing.T, identity string) {
	t.Helper()

	code, _ := c.send(t, "login -i "+identity)
	if code != 200 {
		t.Fatalf("login as %q returned %d", identity, code)
	}
}

// ticketID extracts the id from a create response body
func ticketID(t *testing.T, body any) int64 {
	t.Helper()

	m, ok := body.(map[string]any)
	if !ok {
		t.Fatalf("create response body = %v, want object", body)
	}
	id, ok := m["id"].(float64)
	if !ok {
		t.Fatalf("create response has no numeric id: %v", m)
	}
	return int64(id)
}

func TestTicketLifecycle(t *testing.T) {
	_, addr := startTestServer(t)

	alice := dialTestClient(t, addr)
	alice.login(t, "alice")

	// Create
	code, body := alice.send(t, `create -t "Bug" -a "X" -d "Y"`)
	if code != 201 {
		t.Fatalf("create returned %d, want 201", code)
	}
	id := ticketID(t, body)
	if id != 1 {
		t.Errorf("first ticket id = %d, want 1", id)
	}

	// A different identity is denied without learning anything more
	bob := dialTestClient(t, addr)
	bob.login(t, "bob")
	code, _ = bob.send(t, fmt.Sprintf("find -i %d", id))
	if code != 403 {
		t.Errorf("find by non-owner returned %d, want 403", code)
	}

	// The owner reads the full record
	code, body = alice.send(t, fmt.Sprintf("find -i %d", id))
	if code != 200 {
		t.Fatalf("find by owner returned %d, want 200", code)
	}
	record, ok := body.(map[string]any)
	if !ok {
		t.Fatalf("find response body = %v, want object", body)
	}
	if record["title"] != "Bug" || record["author"] != "X" || record["description"] != "Y" {
		t.Errorf("record fields not intact: %v", record)
	}
	if record["status"] != "pending" {
		t.Errorf("status = %v, want pending", record["status"])
	}
	if record["owner"] != "alice" {
		t.Errorf("owner = %v, want alice", record["owner"])
	}

	// Partial update changes only the supplied field
	code, _ = alice.send(t, fmt.Sprintf("update -i %d -s resolved", id))
	if code != 200 {
		t.Fatalf("update returned %d, want 200", code)
	}
	_, body = alice.send(t, fmt.Sprintf("find -i %d", id))
	record = body.(map[string]any)
	if record["status"] != "resolved" {
		t.Errorf("status after update = %v, want resolved", record["status"])
	}
	if record["title"] != "Bug" {
		t.Errorf("title after update = %v, want Bug", record["title"])
	}

	// Delete, then the ticket is gone
	code, _ = alice.send(t, fmt.Sprintf("delete -i %d", id))
	if code != 200 {
		t.Fatalf("delete returned %d, want 200", code)
	}
	code, _ = alice.send(t, fmt.Sprintf("find -i %d", id))
	if code != 404 {
		t.Errorf("find after delete returned %d, want 404", code)
	}
	code, _ = alice.send(t, fmt.Sprintf("delete -i %d", id))
	if code != 404 {
		t.Errorf("second delete returned %d, want 404", code)
	}
}

func TestAuthenticationRequired(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)

	for _, line := range []string{
		`create -t a -a b -d c`,
		"find -i 1",
		"update -i 1 -s resolved",
		"delete -i 1",
	} {
		code, _ := client.send(t, line)
		if code != 401 {
			t.Errorf("%q before login returned %d, want 401", line, code)
		}
	}
}

func TestLoginGeneratesIdentity(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)

	code, body := client.send(t, "login")
	if code != 200 {
		t.Fatalf("login returned %d, want 200", code)
	}
	m, ok := body.(map[string]any)
	if !ok {
		t.Fatalf("login response body = %v, want object", body)
	}
	identity, _ := m["identity"].(string)
	if identity == "" {
		t.Error("registration did not return a generated identity")
	}
}

func TestReLoginRejected(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)
	client.login(t, "alice")

	code, _ := client.send(t, "login -i mallory")
	if code != 400 {
		t.Errorf("re-login returned %d, want 400", code)
	}

	// Identity is unchanged: tickets created afterwards belong to alice
	code, body := client.send(t, `create -t t -a a -d d`)
	if code != 201 {
		t.Fatalf("create returned %d", code)
	}
	id := ticketID(t, body)

	other := dialTestClient(t, addr)
	other.login(t, "mallory")
	code, _ = other.send(t, fmt.Sprintf("find -i %d", id))
	if code != 403 {
		t.Errorf("find by mallory returned %d, want 403", code)
	}
}

func TestCreateRequiresAllFields(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)
	client.login(t, "alice")

	for _, line := range []string{
		"create",
		"create -t title",
		"create -t title -a author",
		"create -a author -d desc",
	} {
		code, _ := client.send(t, line)
		if code != 400 {
			t.Errorf("%q returned %d, want 400", line, code)
		}
	}

	// Nothing was persisted
	code, _ := client.send(t, "find -i 1")
	if code != 404 {
		t.Errorf("find after failed creates returned %d, want 404", code)
	}
}

func TestUpdateWithNoFields(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)
	client.login(t, "alice")

	code, body := client.send(t, `create -t before -a a -d d`)
	if code != 201 {
		t.Fatalf("create returned %d", code)
	}
	id := ticketID(t, body)

	code, _ = client.send(t, fmt.Sprintf("update -i %d", id))
	if code != 400 {
		t.Errorf("update with no fields returned %d, want 400", code)
	}

	_, found := client.send(t, fmt.Sprintf("find -i %d", id))
	if record := found.(map[string]any); record["title"] != "before" {
		t.Errorf("no-op update mutated the record: %v", record)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)

	code, _ := client.send(t, "frobnicate -x 1")
	if code != 404 {
		t.Errorf("unknown command returned %d, want 404", code)
	}

	// Session still usable
	code, _ = client.send(t, "login -i alice")
	if code != 200 {
		t.Errorf("login after unknown command returned %d, want 200", code)
	}
}

func TestMalformedLineRecovery(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)

	code, _ := client.send(t, `create -t "unterminated`)
	if code != 400 {
		t.Errorf("malformed line returned %d, want 400", code)
	}

	// The next well-formed command on the same connection succeeds
	code, _ = client.send(t, "login -i alice")
	if code != 200 {
		t.Errorf("login after malformed line returned %d, want 200", code)
	}
}

func TestExitTerminatesSession(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestClient(t, addr)

	code, _ := client.send(t, "exit")
	if code != 499 {
		t.Errorf("exit returned %d, want 499", code)
	}

	// The connection is unusable afterwards
	client.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.reader.ReadByte(); err == nil {
		t.Error("connection still delivering data after exit")
	}
}

func TestConcurrentCreatesAllocateUniqueIDs(t *testing.T) {
	_, addr := startTestServer(t)

	const clients = 10
	const perClient = 20

	ids := make(chan int64, clients*perClient)
	var wg sync.WaitGroup

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				t.Errorf("dial failed: %v", err)
				return
			}
			defer conn.Close()
			reader := bufio.NewReader(conn)

			send := func(line string) (int, any) {
				if _, err := conn.Write([]byte(line + "\n")); err != nil {
					t.Errorf("send failed: %v", err)
					return 0, nil
				}
				data, err := reader.ReadBytes('\n')
				if err != nil {
					t.Errorf("read failed: %v", err)
					return 0, nil
				}
				var resp struct {
					StatusCode int `json:"status_code"`
					Response   any `json:"response"`
				}
				if err := json.Unmarshal(data, &resp); err != nil {
					t.Errorf("bad response: %v", err)
					return 0, nil
				}
				return resp.StatusCode, resp.Response
			}

			if code, _ := send(fmt.Sprintf("login -i client-%d", n)); code != 200 {
				t.Errorf("login returned %d", code)
				return
			}
			for j := 0; j < perClient; j++ {
				code, body := send(`create -t t -a a -d d`)
				if code != 201 {
					t.Errorf("create returned %d", code)
					return
				}
				m, _ := body.(map[string]any)
				id, _ := m["id"].(float64)
				ids <- int64(id)
			}
		}(i)
	}

	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate ticket id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != clients*perClient {
		t.Errorf("got %d unique ids, want %d", len(seen), clients*perClient)
	}
}

func TestStats(t *testing.T) {
	srv, addr := startTestServer(t)

	client := dialTestClient(t, addr)
	client.login(t, "alice")

	stats := srv.Stats()
	if stats["total_connections"].(int64) < 1 {
		t.Errorf("total_connections = %v, want >= 1", stats["total_connections"])
	}
	if stats["total_commands"].(int64) < 1 {
		t.Errorf("total_commands = %v, want >= 1", stats["total_commands"])
	}
}
