package tokens

import (
	"errors"
	"sort"
	"sync"

	"github.com/yeti47/agentbench/core/hygiene"
)

// UnlockedTokens holds decrypted token values, each sealed in its own enclave,
// for as long as the session that unlocked them is alive.
type UnlockedTokens struct {
	mu      sync.Mutex
	secrets map[string]*hygiene.SealedSecret
}

func NewUnlockedTokens() *UnlockedTokens {
	return &UnlockedTokens{secrets: make(map[string]*hygiene.SealedSecret)}
}

// Put seals value under id, replacing any previous value. value is wiped.
func (u *UnlockedTokens) Put(id string, value []byte) {
	sealed := hygiene.NewSealedSecret(value)

	u.mu.Lock()
	defer u.mu.Unlock()

	if previous, ok := u.secrets[id]; ok {
		previous.Destroy()
	}
	u.secrets[id] = sealed
}

// Use passes the plaintext of token id to fn. The buffer is destroyed when fn returns.
func (u *UnlockedTokens) Use(id string, fn func(value []byte) error) error {
	u.mu.Lock()
	sealed, ok := u.secrets[id]
	u.mu.Unlock()

	if !ok {
		return NewTokenLockedError(id)
	}
	if err := sealed.Use(fn); err != nil {
		if errors.Is(err, hygiene.ErrSecretDestroyed) {
			return NewTokenLockedError(id)
		}
		return err
	}
	return nil
}

func (u *UnlockedTokens) Has(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.secrets[id]
	return ok
}

func (u *UnlockedTokens) IDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	ids := make([]string, 0, len(u.secrets))
	for id := range u.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (u *UnlockedTokens) Remove(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if sealed, ok := u.secrets[id]; ok {
		sealed.Destroy()
		delete(u.secrets, id)
	}
}

// Clear destroys every cached token and returns how many there were.
func (u *UnlockedTokens) Clear() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	n := len(u.secrets)
	for id, sealed := range u.secrets {
		sealed.Destroy()
		delete(u.secrets, id)
	}
	return n
}
