package input

import (
	"log/slog"
	"sync"
	"time"
)

// Injector owns a FIFO of keys and a single worker that presses each one,
// holds it for Delay, then releases it. Keys are never reordered or merged.
type Injector struct {
	presser KeyPresser
	delay   time.Duration
	poll    time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	queue    []Key
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	injected uint64
}

// InjectorConfig configures an Injector.
type InjectorConfig struct {
	// Delay is how long each key is held down.
	Delay time.Duration
	// Poll is how long the worker idles when the queue is empty.
	Poll time.Duration
}

// NewInjector creates an injector. Call Start to launch the worker.
func NewInjector(presser KeyPresser, cfg InjectorConfig, logger *slog.Logger) *Injector {
	if cfg.Poll <= 0 {
		cfg.Poll = 10 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Injector{
		presser: presser,
		delay:   cfg.Delay,
		poll:    cfg.Poll,
		logger:  logger.With("component", "injector"),
	}
}

// Delay returns the per-key hold time.
func (i *Injector) Delay() time.Duration {
	return i.delay
}

// Start launches the worker. Calling Start on a running injector is a no-op.
func (i *Injector) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return
	}
	i.running = true
	i.stopCh = make(chan struct{})
	i.doneCh = make(chan struct{})
	go i.run(i.stopCh, i.doneCh)
	i.logger.Debug("injector started", "delay", i.delay)
}

// Stop signals the worker to exit after any in-flight key and waits for it.
func (i *Injector) Stop() {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return
	}
	i.running = false
	close(i.stopCh)
	done := i.doneCh
	i.mu.Unlock()

	<-done
	i.logger.Debug("injector stopped")
}

// Enqueue appends key to the queue without blocking.
func (i *Injector) Enqueue(key Key) {
	i.mu.Lock()
	i.queue = append(i.queue, key)
	i.mu.Unlock()
}

// Pending returns the number of keys waiting to be injected.
func (i *Injector) Pending() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.queue)
}

// Injected returns how many keys the worker has processed.
func (i *Injector) Injected() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.injected
}

func (i *Injector) next() (Key, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.queue) == 0 {
		return "", false
	}
	key := i.queue[0]
	i.queue[0] = ""
	i.queue = i.queue[1:]
	return key, true
}

func (i *Injector) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		key, ok := i.next()
		if !ok {
			select {
			case <-stop:
				return
			case <-time.After(i.poll):
			}
			continue
		}

		i.inject(key)
	}
}

// inject presses, holds and releases one key. Failures are logged and the
// worker moves on.
func (i *Injector) inject(key Key) {
	defer func() {
		i.mu.Lock()
		i.injected++
		i.mu.Unlock()
	}()

	i.logger.Debug("typing", "key", key)
	if err := i.presser.Press(key); err != nil {
		i.logger.Warn("press failed", "key", key, "error", err)
		return
	}
	time.Sleep(i.delay)
	if err := i.presser.Release(key); err != nil {
		i.logger.Warn("release failed", "key", key, "error", err)
	}
}
