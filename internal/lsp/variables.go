package lsp

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// variableNotifier delays variable notifications per document, so a burst
// of keystrokes produces one notification with the final set.
type variableNotifier struct {
	delay time.Duration
	send  func(uri string, variables []string)

	mu      sync.Mutex
	pending map[string]func(func())
}

func newVariableNotifier(delay time.Duration, send func(uri string, variables []string)) *variableNotifier {
	return &variableNotifier{
		delay:   delay,
		send:    send,
		pending: make(map[string]func(func())),
	}
}

// schedule replaces any notification pending for uri.
func (n *variableNotifier) schedule(uri string, variables []string) {
	if n.delay <= 0 {
		n.send(uri, variables)
		return
	}

	n.mu.Lock()
	d, ok := n.pending[uri]
	if !ok {
		d = debounce.New(n.delay)
		n.pending[uri] = d
	}
	n.mu.Unlock()

	d(func() { n.send(uri, variables) })
}

// forget drops the notification pending for uri.
func (n *variableNotifier) forget(uri string) {
	n.mu.Lock()
	d, ok := n.pending[uri]
	delete(n.pending, uri)
	n.mu.Unlock()

	if ok {
		d(func() {})
	}
}
