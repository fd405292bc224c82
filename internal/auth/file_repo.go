// This file implements the auth.json repository for users, sessions and codes.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/taskboard/internal/fsutil"
)

// AuthFile is the account database written inside the data directory.
const AuthFile = "auth.json"

type state struct {
	UsersByID            map[string]User          `json:"usersById"`
	UserIDByEmail        map[string]string        `json:"userIdByEmail"`
	Challenges           map[string]Challenge     `json:"challenges"` // key: purpose + ":" + email
	SessionsByID         map[string]SessionRecord `json:"sessionsById"`
	SessionIDByTokenHash map[string]string        `json:"sessionIdByTokenHash"`
}

func newState() state {
	return state{
		UsersByID:            map[string]User{},
		UserIDByEmail:        map[string]string{},
		Challenges:           map[string]Challenge{},
		SessionsByID:         map[string]SessionRecord{},
		SessionIDByTokenHash: map[string]string{},
	}
}

// FileRepo stores accounts, challenges and sessions in one JSON file.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    state
}

// NewFileRepo opens (or starts) dataDir/auth.json.
func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		path: filepath.Join(dataDir, AuthFile),
		s:    newState(),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.s = newState()
			return nil
		}
		return err
	}
	var loaded state
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decoding %s: %w", r.path, err)
	}
	fresh := newState()
	if loaded.UsersByID == nil {
		loaded.UsersByID = fresh.UsersByID
	}
	if loaded.UserIDByEmail == nil {
		loaded.UserIDByEmail = fresh.UserIDByEmail
	}
	if loaded.Challenges == nil {
		loaded.Challenges = fresh.Challenges
	}
	if loaded.SessionsByID == nil {
		loaded.SessionsByID = fresh.SessionsByID
	}
	if loaded.SessionIDByTokenHash == nil {
		loaded.SessionIDByTokenHash = fresh.SessionIDByTokenHash
	}
	r.s = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(r.path, b, 0o600)
}

func challengeKey(p Purpose, email string) string {
	return string(p) + ":" + email
}

// GetUserByEmail looks up a user by normalized email.
func (r *FileRepo) GetUserByEmail(email string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.s.UserIDByEmail[email]
	if !ok {
		return User{}, false
	}
	u, ok := r.s.UsersByID[id]
	return u, ok
}

// GetUserByID looks up a user by ID.
func (r *FileRepo) GetUserByID(id string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.s.UsersByID[id]
	return u, ok
}

// PutUser inserts or replaces u.
func (r *FileRepo) PutUser(u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.UsersByID[u.ID] = u
	r.s.UserIDByEmail[u.Email] = u.ID
	return r.saveLocked()
}

// PutChallenge replaces any outstanding challenge for the same email and purpose.
func (r *FileRepo) PutChallenge(ch Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Challenges[challengeKey(ch.Purpose, ch.Email)] = ch
	return r.saveLocked()
}

// GetChallenge returns the outstanding challenge for email and purpose.
func (r *FileRepo) GetChallenge(p Purpose, email string) (Challenge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.s.Challenges[challengeKey(p, email)]
	return ch, ok
}

// DeleteChallenge removes the challenge for email and purpose.
func (r *FileRepo) DeleteChallenge(p Purpose, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.s.Challenges, challengeKey(p, email))
	return r.saveLocked()
}

// CreateSession stores s and indexes it by token hash.
func (r *FileRepo) CreateSession(s SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.SessionsByID[s.ID] = s
	r.s.SessionIDByTokenHash[s.TokenHash] = s.ID
	return r.saveLocked()
}

// GetSessionByTokenHash resolves a token hash to its session.
func (r *FileRepo) GetSessionByTokenHash(tokenHash string) (SessionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.s.SessionIDByTokenHash[tokenHash]
	if !ok {
		return SessionRecord{}, false
	}
	s, ok := r.s.SessionsByID[id]
	return s, ok
}

// DeleteSessionByTokenHash removes the session for a token hash, if any.
func (r *FileRepo) DeleteSessionByTokenHash(tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.s.SessionIDByTokenHash[tokenHash]
	if !ok {
		return nil
	}
	delete(r.s.SessionIDByTokenHash, tokenHash)
	delete(r.s.SessionsByID, id)
	return r.saveLocked()
}

// DeleteSessionsForUser revokes every session of userID.
func (r *FileRepo) DeleteSessionsForUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for id, s := range r.s.SessionsByID {
		if s.UserID != userID {
			continue
		}
		delete(r.s.SessionsByID, id)
		delete(r.s.SessionIDByTokenHash, s.TokenHash)
		changed = true
	}
	if !changed {
		return nil
	}
	return r.saveLocked()
}
