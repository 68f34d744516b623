package goroutine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
	done     chan struct{}
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
	l.mu.Unlock()
	close(l.done)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{done: make(chan struct{})}
	NewRecoveryHandler(log).SafeGo(func() { panic("boom") })

	<-log.done
	log.mu.Lock()
	defer log.mu.Unlock()
	assert.Len(t, log.messages, 1)
	assert.Contains(t, log.messages[0], "boom")
}
