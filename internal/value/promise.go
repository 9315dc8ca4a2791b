package value

import (
	"sync"

	"github.com/kazaamjt/eikobot/internal/errors"
)

// Promise is a write-once, late-bound resource property, fulfilled by
// its owning handler during deployment (spec §3, §6 scenario 6).
type Promise struct {
	Name string

	mu        sync.Mutex
	fulfilled bool
	value     Value
}

// Set fulfills the promise exactly once. A second call fails - promises
// are write-once just like resource properties.
func (p *Promise) Set(v Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fulfilled {
		return errors.NewDeployError(p.Name, errorAlreadySet(p.Name))
	}
	p.value = v
	p.fulfilled = true
	return nil
}

func errorAlreadySet(name string) error {
	return errors.NewInternalError("promise "+name+" already fulfilled", nil)
}

// Fulfilled reports whether Set has been called.
func (p *Promise) Fulfilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fulfilled
}

// Get returns the fulfilled value, or an UnresolvedPromiseError if the
// promise's owning resource hasn't fulfilled it (spec §4.6).
func (p *Promise) Get(resourceIndex string) (Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fulfilled {
		return nil, errors.NewUnresolvedPromiseError(resourceIndex, p.Name)
	}
	return p.value, nil
}
