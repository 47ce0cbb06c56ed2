package host

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
)

// Notifier is the user-visible notification channel.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// WriterNotifier prints each message on its own line.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, message)
}

// LogNotifier sends messages to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, message string) {
	log.Printf("notify: %s", message)
}

// Collector keeps every message in memory.
type Collector struct {
	mu       sync.Mutex
	messages []string
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(ctx context.Context, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
}

// Messages returns a copy of the collected messages in order.
func (c *Collector) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message, or "" when none was sent.
func (c *Collector) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return ""
	}
	return c.messages[len(c.messages)-1]
}
