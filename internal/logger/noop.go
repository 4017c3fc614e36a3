package logger

// Noop is a logger that discards everything. Useful in tests.
type Noop struct{}

// NewNoop creates a no-op logger.
func NewNoop() *Noop {
	return &Noop{}
}

// Debug discards the message.
func (n *Noop) Debug(string, ...any) {}

// Info discards the message.
func (n *Noop) Info(string, ...any) {}

// Warn discards the message.
func (n *Noop) Warn(string, ...any) {}

// Error discards the message.
func (n *Noop) Error(string, ...any) {}

// Fatal discards the message. Unlike a real logger it does not exit.
func (n *Noop) Fatal(string, ...any) {}

// With returns the same no-op logger.
func (n *Noop) With(...any) Interface { return n }
