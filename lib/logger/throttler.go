package logger

import (
	"sync"
	"time"
)

var (
	logThrottlerRegistryMu = sync.Mutex{}
	logThrottlerRegistry   = make(map[string]*LogThrottler)
)

// WithThrottler returns a logger throttled by time - only one message in throttle duration will be logged.
//
// New logger is created only once for each unique name passed.
// The function is thread-safe.
func WithThrottler(name string, throttle time.Duration) *LogThrottler {
	logThrottlerRegistryMu.Lock()
	defer logThrottlerRegistryMu.Unlock()

	lt, ok := logThrottlerRegistry[name]
	if ok {
		return lt
	}

	lt = newLogThrottler(name, throttle)
	logThrottlerRegistry[name] = lt
	return lt
}

// LogThrottler throttles log messages passed to Warnf and Errorf.
//
// LogThrottler must be created via WithThrottler() call.
// It periodically logs a summary with the number of suppressed messages.
type LogThrottler struct {
	name     string
	throttle time.Duration
	ch       chan struct{}

	mu            sync.Mutex
	suppressedCnt int
}

func newLogThrottler(name string, throttle time.Duration) *LogThrottler {
	lt := &LogThrottler{
		name:     name,
		throttle: throttle,
		ch:       make(chan struct{}, 1),
	}
	go lt.throttleLoop()
	return lt
}

func (lt *LogThrottler) throttleLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-lt.ch:
			time.Sleep(lt.throttle)
		case <-ticker.C:
			lt.logSuppressed()
		}
	}
}

func (lt *LogThrottler) logSuppressed() {
	lt.mu.Lock()
	n := lt.suppressedCnt
	lt.suppressedCnt = 0
	lt.mu.Unlock()

	if n > 0 {
		Warnf("suppressed %d log messages similar to %q during the last minute", n, lt.name)
	}
}

func (lt *LogThrottler) registerSuppressed() {
	lt.mu.Lock()
	lt.suppressedCnt++
	lt.mu.Unlock()
}

// Errorf logs error message.
func (lt *LogThrottler) Errorf(format string, args ...any) {
	select {
	case lt.ch <- struct{}{}:
		ErrorfSkipframes(1, format, args...)
	default:
		lt.registerSuppressed()
	}
}

// Warnf logs warn message.
func (lt *LogThrottler) Warnf(format string, args ...any) {
	select {
	case lt.ch <- struct{}{}:
		WarnfSkipframes(1, format, args...)
	default:
		lt.registerSuppressed()
	}
}
