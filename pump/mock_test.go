package pump

import (
	"bytes"
	"context"
	"go.uber.org/zap/zaptest"
	"sync"
	"testing"
	"time"
)

// mockTransport answers each written command with the next canned response,
// or with the command itself in echo mode. A read with nothing pending
// reports zero bytes, which the channel treats as a timeout.
type mockTransport struct {
	mu        sync.Mutex
	written   bytes.Buffer
	pending   bytes.Buffer
	responses []string
	echo      bool
	delay     time.Duration
	writeErr  error
	readErr   error
	resets    int
	closed    bool
	inFlight  int
	overlap   bool
}

func (m *mockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.writeErr != nil {
		m.mu.Unlock()
		return 0, m.writeErr
	}
	m.written.Write(p)
	m.inFlight++
	if m.inFlight > 1 {
		m.overlap = true
	}
	switch {
	case m.echo:
		m.pending.Write(p)
	case len(m.responses) > 0:
		m.pending.WriteString(m.responses[0])
		m.responses = m.responses[1:]
	}
	delay := m.delay
	m.mu.Unlock()
	time.Sleep(delay)
	return len(p), nil
}

func (m *mockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	if m.pending.Len() == 0 {
		return 0, nil
	}
	n, _ := m.pending.Read(p)
	if n > 0 && p[n-1] == '\n' {
		m.inFlight--
	}
	return n, nil
}

func (m *mockTransport) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.pending.Reset()
	return nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockTransport) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

var testOptions = Options{
	ReadTimeout: 50 * time.Millisecond,
	Settle:      time.Millisecond,
}

func newTestChannel(t *testing.T, m *mockTransport) *Channel {
	t.Helper()
	c, err := New(context.Background(), m, testOptions, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return c
}
