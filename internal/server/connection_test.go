package server

import (
	"net"
	"testing"
)

func TestConnectionReadLine(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	go func() {
		client.Write([]byte("whoami\n"))
	}()

	c := NewConnection(srv)
	buf := make([]byte, 300)
	n, err := c.ReadLine(buf)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if string(buf[:n]) != "whoami\n" {
		t.Errorf("ReadLine() = %q, want %q", buf[:n], "whoami\n")
	}
}

func TestConnectionWriteDelegatesToConn(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	c := NewConnection(srv)
	go func() {
		c.Write([]byte("0\n"))
	}()

	buf := make([]byte, 16)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "0\n" {
		t.Errorf("Read() = %q, want %q", buf[:n], "0\n")
	}
}
