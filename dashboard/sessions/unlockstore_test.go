package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(cookies []*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		c.Request.AddCookie(cookie)
	}
	return c, w
}

func TestGorillaUnlockStore_PersistsAcrossRequests(t *testing.T) {
	factory := NewUnlockStoreFactory(NewCookieStore([]byte("0123456789abcdef0123456789abcdef")))

	c, w := newTestContext(nil)
	store := factory(c)

	ids, err := store.UnlockedIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.AddUnlocked("a"))
	require.NoError(t, store.AddUnlocked("b"))
	require.NoError(t, store.AddUnlocked("a"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[len(cookies)-1].HttpOnly)

	c2, w2 := newTestContext(cookies[len(cookies)-1:])
	store2 := factory(c2)

	ids, err = store2.UnlockedIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	unlocked, err := store2.IsUnlocked("b")
	require.NoError(t, err)
	assert.True(t, unlocked)

	require.NoError(t, store2.RemoveUnlocked("a"))
	ids, _ = store2.UnlockedIDs()
	assert.Equal(t, []string{"b"}, ids)

	cookies2 := w2.Result().Cookies()
	c3, _ := newTestContext(cookies2[len(cookies2)-1:])
	store3 := factory(c3)
	require.NoError(t, store3.Clear())

	ids, _ = store3.UnlockedIDs()
	assert.Empty(t, ids)
}

func TestGorillaUnlockStore_RejectsForeignCookie(t *testing.T) {
	c, w := newTestContext(nil)
	require.NoError(t, NewGorillaUnlockStore(NewCookieStore([]byte("0123456789abcdef0123456789abcdef")), c).AddUnlocked("a"))

	cookies := w.Result().Cookies()
	other, _ := newTestContext(cookies)
	otherStore := NewGorillaUnlockStore(NewCookieStore([]byte("fedcba9876543210fedcba9876543210")), other)

	_, err := otherStore.UnlockedIDs()
	assert.Error(t, err, "a cookie signed with another key must not be accepted")
}
