package store

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/models"
)

// Credential names read from session input or the environment.
const (
	CredentialURL   = "DATABASE_URL"
	CredentialToken = "DATABASE_TOKEN"
)

// OpenFunc opens a Store for a connection string.
type OpenFunc func(ctx context.Context, dsn string) (Store, func(), error)

// DefaultMaxPools caps how many databases a Connector keeps pools for.
const DefaultMaxPools = 16

type poolEntry struct {
	store    Store
	close    func()
	lastUsed uint64
}

// Connector hands out Stores for connection strings, opening one pool per
// distinct database and reusing it across runs. Once more than maxPools
// databases are open the least recently used pool is closed.
type Connector struct {
	mu       sync.Mutex
	pools    map[string]*poolEntry
	dials    singleflight.Group
	maxPools int
	uses     uint64
	open     OpenFunc
	cache    cache.Cache
}

// NewConnector returns a Connector opening Postgres pools capped at
// maxConns. When c is non-nil every Store reads through it.
func NewConnector(maxConns int32, c cache.Cache) *Connector {
	return NewConnectorWithOpener(func(ctx context.Context, dsn string) (Store, func(), error) {
		pg, err := NewPostgres(ctx, dsn, maxConns)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}, c)
}

// NewConnectorWithOpener is NewConnector with a custom opener.
func NewConnectorWithOpener(open OpenFunc, c cache.Cache) *Connector {
	return &Connector{
		pools:    make(map[string]*poolEntry),
		maxPools: DefaultMaxPools,
		open:     open,
		cache:    c,
	}
}

// Open resolves the store named by creds. Dialing a new database happens
// outside the connector lock, so a slow or unreachable host only delays
// callers of that same DSN.
func (c *Connector) Open(ctx context.Context, creds map[string]string) (Store, error) {
	dsn, err := DSN(creds[CredentialURL], creds[CredentialToken])
	if err != nil {
		return nil, err
	}
	if s, ok := c.lookup(dsn); ok {
		return s, nil
	}

	v, err, _ := c.dials.Do(dsn, func() (any, error) {
		if s, ok := c.lookup(dsn); ok {
			return s, nil
		}
		s, closeFn, err := c.open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			s = NewCached(s, c.cache, cache.Key(dsn))
		}
		slog.Info("content store connected", "host", hostOf(dsn))
		c.admit(dsn, &poolEntry{store: s, close: closeFn})
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Store), nil
}

func (c *Connector) lookup(dsn string) (Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.pools[dsn]
	if !ok {
		return nil, false
	}
	c.uses++
	e.lastUsed = c.uses
	return e.store, true
}

// admit registers a freshly dialed pool and closes whatever falls off the
// end of the LRU order.
func (c *Connector) admit(dsn string, e *poolEntry) {
	c.mu.Lock()
	c.uses++
	e.lastUsed = c.uses
	c.pools[dsn] = e
	var evicted []*poolEntry
	for len(c.pools) > c.maxPools {
		oldest := ""
		for k, p := range c.pools {
			if k == dsn {
				continue
			}
			if oldest == "" || p.lastUsed < c.pools[oldest].lastUsed {
				oldest = k
			}
		}
		if oldest == "" {
			break
		}
		evicted = append(evicted, c.pools[oldest])
		slog.Info("content store evicted", "host", hostOf(oldest))
		delete(c.pools, oldest)
	}
	c.mu.Unlock()

	for _, p := range evicted {
		if p.close != nil {
			p.close()
		}
	}
}

// Close releases every pool opened so far.
func (c *Connector) Close() {
	c.mu.Lock()
	pools := c.pools
	c.pools = make(map[string]*poolEntry)
	c.mu.Unlock()

	for _, p := range pools {
		if p.close != nil {
			p.close()
		}
	}
}

// DSN builds a connection string from a database URL and an optional
// access token, which replaces the URL's password.
func DSN(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", models.NewScrapeError(
			models.ErrCodeStoreNotConfigured,
			"database is not configured: set "+CredentialURL,
			nil,
		)
	}
	if token == "" {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", models.NewScrapeError(
			models.ErrCodeStoreNotConfigured,
			"database URL must look like postgres://user@host:5432/db",
			err,
		)
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, token)
	return u.String(), nil
}

func hostOf(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return u.Host
}
