package termcore

import (
	"bytes"
	"sync"
)

// mockAttributes is the snapshot type MockTty hands out. The state counter
// lets tests prove that Restore received exactly what Capture returned.
type mockAttributes struct {
	state int
}

func (*mockAttributes) attrs() {}

// MockTty is an in-memory Tty for tests. It records every write, tracks a
// synthetic attribute state that MakeRaw mutates, and can be told to fail
// any individual operation.
type MockTty struct {
	mu sync.Mutex

	buf      bytes.Buffer
	terminal bool

	state    int
	raw      bool
	rawMode  RawMode
	restores int

	captureErr error
	rawErr     error
	restoreErr error
	writeErr   error
}

// NewMockTty returns a mock that reports being a real terminal and
// succeeds at everything.
func NewMockTty() *MockTty {
	return &MockTty{terminal: true}
}

func (t *MockTty) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	return t.buf.Write(p)
}

func (t *MockTty) Capture() (TerminalAttributes, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.captureErr != nil {
		return nil, t.captureErr
	}
	return &mockAttributes{state: t.state}, nil
}

func (t *MockTty) MakeRaw(mode RawMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rawMode = mode
	if t.rawErr != nil {
		// A failing MakeRaw still mutates the attributes, like a real
		// terminal where one of several mode changes went through before
		// the failure.
		t.state++
		return t.rawErr
	}
	t.raw = true
	t.state++
	return nil
}

func (t *MockTty) Restore(attrs TerminalAttributes) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restores++
	if t.restoreErr != nil {
		return t.restoreErr
	}
	a, ok := attrs.(*mockAttributes)
	if !ok {
		panic("mock restore received foreign attributes")
	}
	t.state = a.state
	t.raw = false
	return nil
}

func (t *MockTty) IsTerminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminal
}

// SetTerminal controls what IsTerminal reports.
func (t *MockTty) SetTerminal(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.terminal = v
}

// FailCapture makes the next Capture calls return err.
func (t *MockTty) FailCapture(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.captureErr = err
}

// FailMakeRaw makes the next MakeRaw calls return err.
func (t *MockTty) FailMakeRaw(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rawErr = err
}

// FailRestore makes the next Restore calls return err.
func (t *MockTty) FailRestore(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restoreErr = err
}

// FailWrites makes the next Write calls return err.
func (t *MockTty) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// Output returns everything written so far.
func (t *MockTty) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

// ResetOutput clears the recorded writes.
func (t *MockTty) ResetOutput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
}

// IsRaw reports whether the mock believes it is in raw mode.
func (t *MockTty) IsRaw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

// RawModeUsed returns the RawMode passed to the last MakeRaw call.
func (t *MockTty) RawModeUsed() RawMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rawMode
}

// State returns the synthetic attribute state. After a successful
// capture/raw/restore cycle it matches the value at capture time.
func (t *MockTty) State() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Restores returns how many times Restore was called.
func (t *MockTty) Restores() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restores
}
