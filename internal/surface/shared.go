package surface

import (
	"errors"
	"sync"

	"github.com/ironsheep/image-fit/internal/errs"
)

// ErrNotInitialized is returned by Shared before Init.
var ErrNotInitialized = errors.New("shared surface pool not initialized")

var (
	sharedMu sync.Mutex
	shared   *Pool
)

// Init creates the process-wide pool. A previous shared pool is closed.
func Init(cfg Config) *Pool {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		shared.Close()
	}
	shared = New(cfg)
	return shared
}

// Shared returns the process-wide pool.
func Shared() (*Pool, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		return nil, errs.Wrap(ErrNotInitialized)
	}
	return shared, nil
}

// Shutdown closes and forgets the process-wide pool.
func Shutdown() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		shared.Close()
		shared = nil
	}
}
