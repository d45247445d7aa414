package cache

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vehiclepass/vehicle-command/pkg/account"
)

func generateTestTokens(n int) account.TokenPair {
	return account.TokenPair{Identity: "identity-" + strconv.Itoa(n), Access: "access-" + strconv.Itoa(n)}
}

func generateTestCache(t *testing.T, userCount int) *TokenCache {
	t.Helper()
	c := New(0)
	for i := 0; i < userCount; i++ {
		c.update(strconv.Itoa(i), generateTestTokens(i), time.Time{}.Add(time.Duration(i)))
	}
	return c
}

func verifyCache(t *testing.T, c *TokenCache, entries []int) {
	t.Helper()
	found := make(map[string]bool)
	for _, i := range entries {
		username := strconv.Itoa(i)
		if tokens, ok := c.GetEntry(username); ok {
			if tokens != generateTestTokens(i) {
				t.Errorf("token cache contained invalid entry %d", i)
				return
			}
		} else {
			t.Errorf("token cache did not contain entry %d", i)
		}
		found[username] = true
	}
	for username := range c.Accounts {
		if _, ok := found[username]; !ok {
			t.Errorf("token cache contained extraneous entry %s", username)
		}
	}
}

func TestImportExport(t *testing.T) {
	var buffer bytes.Buffer
	c := generateTestCache(t, 5)
	if err := c.Export(&buffer); err != nil {
		t.Fatal(err)
	}
	cc, err := Import(&buffer)
	if err != nil {
		t.Fatal(err)
	}
	verifyCache(t, cc, []int{0, 1, 2, 3, 4})
}

func TestImportExportFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tokens.json")
	c := generateTestCache(t, 3)
	if err := c.ExportToFile(filename); err != nil {
		t.Fatal(err)
	}
	// A smaller cache must not leave trailing bytes from the previous export.
	c.Remove("2")
	c.Remove("1")
	if err := c.ExportToFile(filename); err != nil {
		t.Fatal(err)
	}
	cc, err := ImportFromFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	verifyCache(t, cc, []int{0})
}

func TestEviction(t *testing.T) {
	c := generateTestCache(t, 0)
	c.MaxEntries = 5
	add := func(n int) {
		c.update(strconv.Itoa(n), generateTestTokens(n), time.Time{}.Add(time.Duration(n)))
	}
	// Entries are evicted based on timestamp, not the order in which they were added to the cache.
	add(7)
	add(4)
	add(5)
	add(3)
	add(6)
	verifyCache(t, c, []int{3, 4, 5, 6, 7})

	// Duplicate key updated in place
	add(5)
	verifyCache(t, c, []int{3, 4, 5, 6, 7})

	// Evicts oldest entry
	add(8)
	verifyCache(t, c, []int{4, 5, 6, 7, 8})

	// Older entry doesn't evict newer entry
	add(1)
	verifyCache(t, c, []int{4, 5, 6, 7, 8})
}

func TestGetValid(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatal(err)
	}

	c := New(0)
	c.Update("user@example.com", account.TokenPair{Identity: "identity", Access: access})
	c.Update("other@example.com", account.TokenPair{Identity: "identity", Access: "not-a-jwt"})

	if _, ok := c.GetValid("user@example.com", now, time.Minute); !ok {
		t.Error("Expected unexpired tokens")
	}
	if _, ok := c.GetValid("user@example.com", now.Add(2*time.Hour), time.Minute); ok {
		t.Error("Expected expired tokens to be rejected")
	}
	if _, ok := c.GetValid("other@example.com", now, 0); ok {
		t.Error("Expected unparseable tokens to be rejected")
	}
	if _, ok := c.GetValid("missing@example.com", now, 0); ok {
		t.Error("Expected missing entry")
	}
}
