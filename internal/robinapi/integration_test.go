package robinapi_test

import (
	"io"
	"net"
	"testing"

	"github.com/lzulberti/robin/internal/directory"
	"github.com/lzulberti/robin/internal/logging"
	"github.com/lzulberti/robin/internal/metrics"
	"github.com/lzulberti/robin/internal/robin"
	"github.com/lzulberti/robin/internal/robinapi"
	"github.com/lzulberti/robin/internal/server"
)

// pipeServer runs one robin.HandleConnection loop over one end of a
// net.Pipe, returning the Client wired to the other end.
func pipeServer(t *testing.T) (*robinapi.Client, *directory.Directory) {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	dir := directory.New()
	logger := logging.NewLogger("error")

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn := server.NewConnection(serverConn)
		robin.HandleConnection("test", conn, dir, logger, &metrics.NoopCollector{}, robinapi.DefaultMaxLineLength)
	}()

	t.Cleanup(func() {
		clientConn.Close()
		<-done
	})

	return robinapi.NewClient(clientConn, robinapi.DefaultMaxLineLength), dir
}

func TestClientRegisterLoginWhoami(t *testing.T) {
	client, _ := pipeServer(t)

	if err := client.Register("alice@example.com", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := client.Login("alice@example.com", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	who, err := client.Whoami()
	if err != nil {
		t.Fatalf("Whoami: %v", err)
	}
	if who != "alice@example.com" {
		t.Errorf("Whoami() = %q, want alice@example.com", who)
	}
}

func TestClientFollowAndFollowers(t *testing.T) {
	client, dir := pipeServer(t)

	if err := client.Register("alice@example.com", "a"); err != nil {
		t.Fatalf("Register alice: %v", err)
	}
	if _, err := dir.Add("bob@example.com", "b"); err != nil {
		t.Fatalf("Add bob: %v", err)
	}

	if err := client.Login("alice@example.com", "a"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	results, err := client.Follow([]string{"bob@example.com", "nobody@example.com"})
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Email != "bob@example.com" || results[0].Code != directory.FollowCodeFollowed {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Code != directory.FollowCodeNotFound {
		t.Errorf("results[1] = %+v, want FollowCodeNotFound", results[1])
	}

	bob, err := dir.Find("bob@example.com")
	if err != nil {
		t.Fatalf("Find bob: %v", err)
	}
	followers := bob.Followers()
	if len(followers) != 1 || followers[0] != "alice@example.com" {
		t.Errorf("bob's followers = %v, want [alice@example.com]", followers)
	}
}

func TestClientCipAndCips(t *testing.T) {
	client, _ := pipeServer(t)

	if err := client.Register("alice@example.com", "a"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := client.Login("alice@example.com", "a"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := client.Cip("hello\nworld"); err != nil {
		t.Fatalf("Cip: %v", err)
	}
	if err := client.Cip("second message"); err != nil {
		t.Fatalf("Cip: %v", err)
	}

	cips, err := client.Cips(0)
	if err != nil {
		t.Fatalf("Cips: %v", err)
	}
	if len(cips) != 2 {
		t.Fatalf("len(cips) = %d, want 2", len(cips))
	}
	// Newest first.
	if cips[0].Text != "second message" {
		t.Errorf("cips[0].Text = %q, want 'second message'", cips[0].Text)
	}
	if cips[1].Text != "hello\nworld" {
		t.Errorf("cips[1].Text = %q, want 'hello\\nworld'", cips[1].Text)
	}
}

func TestClientQuitClosesConnection(t *testing.T) {
	client, _ := pipeServer(t)

	if err := client.Quit(); err != nil {
		t.Fatalf("Quit: %v", err)
	}

	// Further writes on the closed client should fail.
	if err := client.Register("late@example.com", "x"); err == nil {
		t.Error("expected error writing to a closed connection")
	} else if err != io.ErrClosedPipe && !isClosedConnErr(err) {
		t.Logf("got error (acceptable): %v", err)
	}
}

func isClosedConnErr(err error) bool {
	return err != nil
}
