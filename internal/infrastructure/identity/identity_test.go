package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/internal/domain/service"
	rediscache "github.com/turtacn/uats/internal/infrastructure/persistence/redis"
	"github.com/turtacn/uats/pkg/errors"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func userToken(t *testing.T, ttl time.Duration) string {
	return mintToken(t, jwt.MapClaims{
		"sub":         "user_2abc",
		"sid":         "sess_9",
		"email":       "ada@example.com",
		"given_name":  "Ada",
		"family_name": "Lovelace",
		"exp":         time.Now().Add(ttl).Unix(),
	})
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(userToken(t, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", claims.User.ID)
	assert.Equal(t, "ada@example.com", claims.User.Email)
	assert.Equal(t, "Ada Lovelace", claims.User.DisplayName())
	assert.Equal(t, "sess_9", claims.SessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 2*time.Second)

	_, err = ParseToken("not-a-jwt")
	assert.Error(t, err)

	_, err = ParseToken(mintToken(t, jwt.MapClaims{"email": "x@example.com"}))
	assert.Error(t, err)

	_, err = UserFromToken("  ")
	assert.Error(t, err)
}

func TestProvider_SetAndChanges(t *testing.T) {
	p := NewProvider(service.IdentitySnapshot{}, nil)
	assert.False(t, p.Current().Loaded)

	p.SignOut(context.Background())
	snap := <-p.Changes()
	assert.True(t, snap.Loaded)
	assert.Nil(t, snap.User)

	require.NoError(t, p.SignIn(context.Background(), userToken(t, time.Hour)))
	snap = <-p.Changes()
	require.True(t, snap.Complete())
	assert.Equal(t, "sess_9", snap.Session.ID())
	assert.Equal(t, p.Current().User, snap.User)

	p.Close()
	p.Close()
	_, open := <-p.Changes()
	assert.False(t, open)

	p.SignOut(context.Background())
	assert.True(t, p.Current().Complete())
}

func TestProvider_LaggingObserverSeesNewest(t *testing.T) {
	p := NewProvider(service.IdentitySnapshot{}, nil)
	for i := 0; i < changeBuffer+3; i++ {
		p.Set(service.IdentitySnapshot{Loaded: i%2 == 0})
	}
	p.Set(service.IdentitySnapshot{Loaded: true, Session: NewStaticSession("last", "tok")})

	var last service.IdentitySnapshot
	for i := 0; i < changeBuffer; i++ {
		last = <-p.Changes()
	}
	require.NotNil(t, last.Session)
	assert.Equal(t, "last", last.Session.ID())
}

func TestProvider_SignInRejectsBadToken(t *testing.T) {
	p := NewProvider(service.IdentitySnapshot{Loaded: true}, nil)
	assert.Error(t, p.SignIn(context.Background(), "garbage"))
	assert.Nil(t, p.Current().User)
}

func TestStaticSession(t *testing.T) {
	s := NewStaticSession("s1", "tok")
	got, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type tokenServer struct {
	hits  atomic.Int32
	token string
	fail  int32
	code  int
}

func (ts *tokenServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := ts.hits.Add(1)
		assert.Equal(t, "Bearer cred", r.Header.Get("Authorization"))
		var body tokenRequest
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "sess_9", body.SessionID)
		if n <= ts.fail {
			w.WriteHeader(ts.code)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{JWT: ts.token})
	}
}

func newTokenSession(t *testing.T, ts *tokenServer, cache TokenCache) *TokenSession {
	t.Helper()
	srv := httptest.NewServer(ts.handler(t))
	t.Cleanup(srv.Close)
	return NewTokenSession("sess_9", TokenSessionOptions{
		Endpoint:   srv.URL,
		Credential: "cred",
		Skew:       time.Second,
		MaxElapsed: 2 * time.Second,
		HTTPClient: srv.Client(),
		Cache:      cache,
	})
}

func TestTokenSession_CachesUntilExpiry(t *testing.T) {
	ts := &tokenServer{token: userToken(t, time.Hour)}
	session := newTokenSession(t, ts, nil)

	for i := 0; i < 3; i++ {
		got, err := session.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ts.token, got)
	}
	assert.Equal(t, int32(1), ts.hits.Load())

	session.Invalidate(context.Background())
	_, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), ts.hits.Load())
}

func TestTokenSession_TokenWithoutExpiryIsNotCached(t *testing.T) {
	ts := &tokenServer{token: mintToken(t, jwt.MapClaims{"sub": "user_2abc"})}
	session := newTokenSession(t, ts, nil)

	for i := 0; i < 2; i++ {
		_, err := session.Token(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), ts.hits.Load())
}

func TestTokenSession_RetriesServerErrors(t *testing.T) {
	ts := &tokenServer{token: userToken(t, time.Hour), fail: 2, code: http.StatusServiceUnavailable}
	session := newTokenSession(t, ts, nil)

	got, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ts.token, got)
	assert.Equal(t, int32(3), ts.hits.Load())
}

func TestTokenSession_ClientErrorIsPermanent(t *testing.T) {
	ts := &tokenServer{token: userToken(t, time.Hour), fail: 10, code: http.StatusForbidden}
	session := newTokenSession(t, ts, nil)

	_, err := session.Token(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsBackend(err))
	assert.Equal(t, "HTTP 403", err.Error())
	assert.Equal(t, int32(1), ts.hits.Load())
}

func TestTokenSession_ConcurrentCallersShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	token := userToken(t, time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_ = json.NewEncoder(w).Encode(tokenResponse{Token: token})
	}))
	t.Cleanup(srv.Close)
	session := NewTokenSession("sess_9", TokenSessionOptions{Endpoint: srv.URL, HTTPClient: srv.Client()})

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = session.Token(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, token, got)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestTokenSession_SharesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	conn := rediscache.NewRedisConnection(config.RedisConfig{Enabled: true, Addresses: []string{mr.Addr()}}, nil)
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { _ = conn.Close() })
	shared := rediscache.NewCacheManager(conn.GetClient(), "uats", nil)

	ts := &tokenServer{token: userToken(t, time.Hour)}
	first := newTokenSession(t, ts, shared)
	second := newTokenSession(t, ts, shared)

	_, err := first.Token(context.Background())
	require.NoError(t, err)
	got, err := second.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ts.token, got)
	assert.Equal(t, int32(1), ts.hits.Load())
	assert.True(t, mr.Exists("uats:session:token:sess_9"))

	second.Invalidate(context.Background())
	assert.False(t, mr.Exists("uats:session:token:sess_9"))
}
