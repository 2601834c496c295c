// Package htpasswd implements an authorization backend over a colon
// separated credential file with bcrypt password hashes. A user may only
// act on collections they own.
package htpasswd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Backend holds the parsed credential file.
type Backend struct {
	hashes map[string]string
}

// Load reads a credential file of "user:bcrypt-hash" lines. Blank lines and
// lines starting with '#' are skipped.
func Load(path string) (*Backend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	b := &Backend{hashes: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		user, hash, ok := strings.Cut(text, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("credential file line %d: malformed entry", line)
		}
		b.hashes[user] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	return b, nil
}

// New builds a backend from an in-memory user to hash map.
func New(hashes map[string]string) *Backend {
	copied := make(map[string]string, len(hashes))
	for user, hash := range hashes {
		copied[user] = hash
	}
	return &Backend{hashes: copied}
}

// Authorize grants access when the credential names the collection's owner
// and the password matches the stored hash.
func (b *Backend) Authorize(owner, user, password string) bool {
	if user == "" || user != owner {
		return false
	}
	hash, ok := b.hashes[user]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
