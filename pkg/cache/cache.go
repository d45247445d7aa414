package cache

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vehiclepass/vehicle-command/pkg/account"
)

// Entry is a cached token pair.
type Entry struct {
	Tokens    account.TokenPair `json:"tokens"`
	CreatedAt time.Time         `json:"created_at"`
}

type TokenCache struct {
	MaxEntries int
	Accounts   map[string]Entry `json:"accounts"`
	lock       sync.Mutex
}

// New returns a TokenCache that holds tokens for up to maxEntries usernames. When the cache is
// full, the entry with the oldest creation time is evicted.
//
// Set maxEntries to zero for an unbounded cache.
func New(maxEntries int) *TokenCache {
	return &TokenCache{
		MaxEntries: maxEntries,
		Accounts:   make(map[string]Entry),
	}
}

// Import a TokenCache using data in r.
// The data should previously have been generated using [TokenCache.Export].
func Import(r io.Reader) (*TokenCache, error) {
	var cache TokenCache
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cache); err != nil {
		return nil, err
	}
	if cache.Accounts == nil {
		cache.Accounts = make(map[string]Entry)
	}
	return &cache, nil
}

// ImportFromFile reads a TokenCache from disk.
func ImportFromFile(filename string) (*TokenCache, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Import(file)
}

// Export writes a serialized TokenCache to w.
func (c *TokenCache) Export(w io.Writer) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return json.NewEncoder(w).Encode(c)
}

// ExportToFile writes a TokenCache to disk. The file is only readable by the current user.
func (c *TokenCache) ExportToFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.Export(file)
}

// Update the TokenCache's entry for username.
func (c *TokenCache) Update(username string, tokens account.TokenPair) {
	c.update(username, tokens, time.Now())
}

func (c *TokenCache) update(username string, tokens account.TokenPair, createdAt time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.Accounts == nil {
		c.Accounts = make(map[string]Entry)
	}
	c.Accounts[username] = Entry{Tokens: tokens, CreatedAt: createdAt}
	if c.MaxEntries > 0 && len(c.Accounts) > c.MaxEntries {
		oldest := username
		oldestCreationTime := createdAt
		for u, entry := range c.Accounts {
			if entry.CreatedAt.Before(oldestCreationTime) {
				oldest = u
				oldestCreationTime = entry.CreatedAt
			}
		}
		delete(c.Accounts, oldest)
	}
}

// GetEntry returns the tokens associated with username, whether or not they have expired.
func (c *TokenCache) GetEntry(username string) (account.TokenPair, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.Accounts[username]
	return entry.Tokens, ok
}

// GetValid returns the tokens associated with username if the access token remains valid for at
// least margin after now.
func (c *TokenCache) GetValid(username string, now time.Time, margin time.Duration) (account.TokenPair, bool) {
	tokens, ok := c.GetEntry(username)
	if !ok || tokens.Expired(now, margin) {
		return account.TokenPair{}, false
	}
	return tokens, true
}

// Remove deletes the entry for username.
func (c *TokenCache) Remove(username string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.Accounts, username)
}
