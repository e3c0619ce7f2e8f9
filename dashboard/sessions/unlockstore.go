package sessions

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	sessionName = "agentbench-dashboard-session"
	unlockedKey = "unlocked"
)

// UnlockStore records which tokens the browser session has unlocked. Only ids
// are kept in the cookie; the token values never leave the process.
type UnlockStore interface {
	UnlockedIDs() ([]string, error)
	IsUnlocked(id string) (bool, error)
	AddUnlocked(id string) error
	RemoveUnlocked(id string) error
	Clear() error
}

// GorillaUnlockStore implements UnlockStore using gorilla sessions
type GorillaUnlockStore struct {
	store   sessions.Store
	request *gin.Context
}

// NewGorillaUnlockStore creates a new GorillaUnlockStore for a specific request
func NewGorillaUnlockStore(store sessions.Store, c *gin.Context) UnlockStore {
	return &GorillaUnlockStore{
		store:   store,
		request: c,
	}
}

func (s *GorillaUnlockStore) session() (*sessions.Session, error) {
	return s.store.Get(s.request.Request, sessionName)
}

func idsFromSession(session *sessions.Session) []string {
	value, ok := session.Values[unlockedKey].(string)
	if !ok || value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}

func (s *GorillaUnlockStore) save(session *sessions.Session, ids []string) error {
	if len(ids) == 0 {
		delete(session.Values, unlockedKey)
	} else {
		session.Values[unlockedKey] = strings.Join(ids, ",")
	}
	return session.Save(s.request.Request, s.request.Writer)
}

func (s *GorillaUnlockStore) UnlockedIDs() ([]string, error) {
	session, err := s.session()
	if err != nil {
		return nil, err
	}
	return idsFromSession(session), nil
}

func (s *GorillaUnlockStore) IsUnlocked(id string) (bool, error) {
	ids, err := s.UnlockedIDs()
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

func (s *GorillaUnlockStore) AddUnlocked(id string) error {
	session, err := s.session()
	if err != nil {
		return err
	}

	ids := idsFromSession(session)
	if !slices.Contains(ids, id) {
		ids = append(ids, id)
	}
	return s.save(session, ids)
}

func (s *GorillaUnlockStore) RemoveUnlocked(id string) error {
	session, err := s.session()
	if err != nil {
		return err
	}

	ids := slices.DeleteFunc(idsFromSession(session), func(existing string) bool {
		return existing == id
	})
	return s.save(session, ids)
}

func (s *GorillaUnlockStore) Clear() error {
	session, err := s.session()
	if err != nil {
		return err
	}
	return s.save(session, nil)
}

// UnlockStoreFactory creates an UnlockStore for a given request context.
type UnlockStoreFactory func(c *gin.Context) UnlockStore

// NewUnlockStoreFactory creates a new UnlockStoreFactory.
func NewUnlockStoreFactory(store sessions.Store) UnlockStoreFactory {
	return func(c *gin.Context) UnlockStore {
		return NewGorillaUnlockStore(store, c)
	}
}

// NewCookieStore creates the dashboard's cookie store. Cookies are HTTP-only,
// same-site strict and expire with the browser session.
func NewCookieStore(key []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	return store
}
