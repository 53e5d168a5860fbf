package workerpool

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lzulberti/robin/internal/metrics"
)

func pipePair() (net.Conn, net.Conn) {
	return net.Pipe()
}

func TestDispatchUsesRealWorkersBeforeElastic(t *testing.T) {
	var served atomic.Int32
	handler := func(conn net.Conn) {
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		served.Add(1)
	}

	p := New(2, handler, nil, &metrics.NoopCollector{})
	defer p.Close()

	client1, server1 := pipePair()
	client2, server2 := pipePair()
	defer client1.Close()
	defer client2.Close()

	p.Dispatch(server1)
	p.Dispatch(server2)

	time.Sleep(20 * time.Millisecond)
	if got := served.Load(); got != 0 {
		t.Fatalf("handlers should be blocked on Read, got %d served early", got)
	}

	p.mu.Lock()
	for i, w := range p.real {
		if w.idle {
			t.Errorf("real worker %d still idle after two dispatches, want busy", i)
		}
	}
	p.mu.Unlock()

	client1.Write([]byte("x"))
	client2.Write([]byte("x"))
	time.Sleep(20 * time.Millisecond)

	if got := served.Load(); got != 2 {
		t.Fatalf("served = %d, want 2", got)
	}
}

func TestDispatchSpawnsElasticWhenRealBusy(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var count int

	handler := func(conn net.Conn) {
		mu.Lock()
		count++
		mu.Unlock()
		<-release
	}

	p := New(1, handler, nil, &metrics.NoopCollector{})
	defer func() {
		close(release)
		p.Close()
	}()

	conns := make([]net.Conn, 3)
	for i := range conns {
		_, server := pipePair()
		conns[i] = server
		p.Dispatch(server)
	}

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	got := count
	mu.Unlock()

	if got != 3 {
		t.Fatalf("count = %d, want 3 (1 real + 2 elastic)", got)
	}
}

func TestElasticWorkerExitsAfterGracePeriod(t *testing.T) {
	var spawned atomic.Int32
	handler := func(conn net.Conn) {
		spawned.Add(1)
	}

	p := New(0, handler, nil, &metrics.NoopCollector{})
	defer p.Close()

	_, server := pipePair()
	p.Dispatch(server)

	time.Sleep(elasticIdleGrace * 3)

	p.mu.Lock()
	idle := len(p.idleElastic)
	p.mu.Unlock()

	if idle != 0 {
		t.Fatalf("idleElastic = %d, want 0 after grace period elapses", idle)
	}
}

func TestCloseWaitsForRealWorkers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	handler := func(conn net.Conn) {
		close(started)
		<-release
	}

	p := New(1, handler, nil, &metrics.NoopCollector{})

	_, server := pipePair()
	p.Dispatch(server)
	<-started

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned before in-flight real worker finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after worker finished")
	}
}
