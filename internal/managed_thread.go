// ManagedThread runs a caller-supplied single-iteration function in its own
// goroutine, repeatedly, until stopped; it can be paused and resumed in
// between iterations. This is the shared skeleton Worker builds its
// iterate loop on top of.

package threadpool_internal

import (
	"sync"
)

type ManagedThreadState int

const (
	ManagedThreadCreated ManagedThreadState = iota
	ManagedThreadRunning
	ManagedThreadPaused
	ManagedThreadStopped
)

var managedThreadStateNames = map[ManagedThreadState]string{
	ManagedThreadCreated: "Created",
	ManagedThreadRunning: "Running",
	ManagedThreadPaused:  "Paused",
	ManagedThreadStopped: "Stopped",
}

func (s ManagedThreadState) String() string {
	if name, ok := managedThreadStateNames[s]; ok {
		return name
	}
	return "Undefined"
}

type ManagedThread struct {
	mu    sync.Mutex
	state ManagedThreadState

	resumeCh chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}

	iterate func()
}

// NewManagedThread builds a thread that will call iterate() repeatedly once
// Start is invoked, until Stop is called.
func NewManagedThread(iterate func()) *ManagedThread {
	return &ManagedThread{
		state:    ManagedThreadCreated,
		resumeCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		iterate:  iterate,
	}
}

func (mt *ManagedThread) State() ManagedThreadState {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.state
}

func (mt *ManagedThread) Start() Result {
	mt.mu.Lock()
	if mt.state != ManagedThreadCreated {
		mt.mu.Unlock()
		return Error
	}
	mt.state = ManagedThreadRunning
	mt.mu.Unlock()

	go mt.run()
	return Ok
}

func (mt *ManagedThread) run() {
	defer close(mt.doneCh)
	for {
		select {
		case <-mt.stopCh:
			return
		default:
		}

		mt.mu.Lock()
		paused := mt.state == ManagedThreadPaused
		mt.mu.Unlock()
		if paused {
			select {
			case <-mt.stopCh:
				return
			case <-mt.resumeCh:
				continue
			}
		}

		if mt.iterate != nil {
			mt.iterate()
		}
	}
}

func (mt *ManagedThread) Pause() Result {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.state != ManagedThreadRunning {
		return Error
	}
	mt.state = ManagedThreadPaused
	return Ok
}

func (mt *ManagedThread) Resume() Result {
	mt.mu.Lock()
	if mt.state != ManagedThreadPaused {
		mt.mu.Unlock()
		return Error
	}
	mt.state = ManagedThreadRunning
	mt.mu.Unlock()

	select {
	case mt.resumeCh <- struct{}{}:
	default:
	}
	return Ok
}

// Stop signals the thread to end and waits for the goroutine to exit.
func (mt *ManagedThread) Stop() Result {
	mt.mu.Lock()
	if mt.state == ManagedThreadStopped {
		mt.mu.Unlock()
		return Error
	}
	mt.state = ManagedThreadStopped
	mt.mu.Unlock()

	close(mt.stopCh)
	select {
	case mt.resumeCh <- struct{}{}:
	default:
	}
	<-mt.doneCh
	return Ok
}
