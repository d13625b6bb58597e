package syringepump

import (
	"bytes"
	"context"
	"github.com/jt05610/syringe/pump"
	"go.uber.org/zap/zaptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeController behaves like the pump firmware: SET stores the given
// keys, GET answers with everything stored for that pump. With silent set
// it never answers.
type fakeController struct {
	mu      sync.Mutex
	line    bytes.Buffer
	out     bytes.Buffer
	state   map[string]map[string]string
	history []string
	silent  bool
}

func newFakeController() *fakeController {
	return &fakeController{state: map[string]map[string]string{}}
}

func (f *fakeController) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range p {
		if b != '\n' {
			f.line.WriteByte(b)
			continue
		}
		cmd := f.line.String()
		f.line.Reset()
		f.history = append(f.history, cmd)
		if !f.silent {
			f.out.WriteString(f.answer(cmd) + "\r\n")
		}
	}
	return len(p), nil
}

func (f *fakeController) answer(cmd string) string {
	tok := strings.Fields(cmd)
	if len(tok) < 2 || !strings.HasPrefix(tok[1], "PUMP=") {
		return "ERR"
	}
	id := strings.TrimPrefix(tok[1], "PUMP=")
	params := f.state[id]
	if params == nil {
		params = map[string]string{}
		f.state[id] = params
	}
	switch tok[0] {
	case "SET":
		for _, kv := range tok[2:] {
			k, v, _ := strings.Cut(kv, "=")
			params[k] = v
		}
		return "OK " + strings.Join(tok[1:], " ")
	case "GET":
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + params[k]
		}
		return strings.Join(parts, " ")
	}
	return "ERR"
}

func (f *fakeController) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.out.Len() == 0 {
		return 0, nil
	}
	return f.out.Read(p)
}

func (f *fakeController) ResetInputBuffer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out.Reset()
	return nil
}

func (f *fakeController) Close() error {
	return nil
}

func (f *fakeController) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return ""
	}
	return f.history[len(f.history)-1]
}

func newTestPump(t *testing.T) (*SyringePump, *fakeController) {
	t.Helper()
	ctrl := newFakeController()
	ch, err := pump.New(context.Background(), ctrl, pump.Options{
		ReadTimeout: 50 * time.Millisecond,
		Settle:      time.Millisecond,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return NewSyringePump(ch, zaptest.NewLogger(t)), ctrl
}
