package scraper

import (
	"sync"
	"time"
)

// domainMemory remembers hosts whose pages needed the browser, so auto
// mode skips the plain HTTP attempt for them until the entry expires.
type domainMemory struct {
	hosts sync.Map // host (string) -> expiry (time.Time)
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

func newDomainMemory(ttl time.Duration) *domainMemory {
	dm := &domainMemory{ttl: ttl, done: make(chan struct{})}
	go dm.cleanupLoop()
	return dm
}

// Has reports whether host is remembered and not expired.
func (dm *domainMemory) Has(host string) bool {
	if host == "" {
		return false
	}
	v, ok := dm.hosts.Load(host)
	if !ok {
		return false
	}
	if time.Now().After(v.(time.Time)) {
		dm.hosts.Delete(host)
		return false
	}
	return true
}

// Add remembers host for the configured TTL.
func (dm *domainMemory) Add(host string) {
	if host == "" {
		return
	}
	dm.hosts.Store(host, time.Now().Add(dm.ttl))
}

// Stop terminates the cleanup goroutine.
func (dm *domainMemory) Stop() {
	dm.once.Do(func() { close(dm.done) })
}

func (dm *domainMemory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case now := <-ticker.C:
			dm.hosts.Range(func(key, value any) bool {
				if now.After(value.(time.Time)) {
					dm.hosts.Delete(key)
				}
				return true
			})
		}
	}
}
