// Package transport wires the arena engine to the outside world: WebSocket
// connections, per-IP rate limiting, reconnectable session tokens, and the
// HTTP router that serves them.
package transport

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// SessionStore mints reconnectable session tokens and tracks each session's
// grace-period timer (spec.md §4.H, §5): a disconnected session is marked
// pendingDeletion and, unless a heartbeat or reconnect clears it before
// SESSION_TIMEOUT elapses, its player is removed from the engine.
type SessionStore struct {
	mu        sync.Mutex
	secretKey []byte
	pending   map[string]*time.Timer
}

// NewSessionStore creates a session store with a fresh random signing key.
func NewSessionStore() *SessionStore {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		key = []byte("lightcycle-fallback-signing-key")
	}
	return &SessionStore{
		secretKey: key,
		pending:   make(map[string]*time.Timer),
	}
}

// Mint creates a new user id and its signed token. The token is what the
// client must present to reconnect as the same player; the user id is what
// the engine knows the player as.
func (s *SessionStore) Mint() (userID, token string) {
	id := make([]byte, 16)
	rand.Read(id)
	userID = hex.EncodeToString(id)
	return userID, s.sign(userID)
}

// Verify checks a token's signature and returns the user id it was minted
// for. Reports false on any malformed or forged token.
func (s *SessionStore) Verify(token string) (userID string, ok bool) {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}
	parts := strings.SplitN(string(decoded), ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	userID, sig := parts[0], parts[1]
	expected := s.mac(userID)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return userID, true
}

func (s *SessionStore) sign(userID string) string {
	return base64.URLEncoding.EncodeToString([]byte(userID + "." + s.mac(userID)))
}

func (s *SessionStore) mac(userID string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// MarkPendingDeletion starts (or restarts) the grace-period timer for
// userID. onExpire fires after d unless ClearPendingDeletion is called first.
func (s *SessionStore) MarkPendingDeletion(userID string, d time.Duration, onExpire func(userID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[userID]; ok {
		t.Stop()
	}
	s.pending[userID] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.pending, userID)
		s.mu.Unlock()
		onExpire(userID)
	})
}

// ClearPendingDeletion cancels userID's grace-period timer, if any (a
// heartbeat or successful reconnect). Reports whether one was pending.
func (s *SessionStore) ClearPendingDeletion(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[userID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.pending, userID)
	return true
}

