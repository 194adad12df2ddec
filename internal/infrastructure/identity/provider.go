package identity

import (
	"context"
	"sync"

	"github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/pkg/logger"
)

// changeBuffer bounds how many unread snapshots a provider keeps for a slow observer.
const changeBuffer = 8

// Provider is an in-process identity provider. Sign-in and sign-out are driven
// by the console surface rather than a browser SDK.
// Provider 是进程内的身份提供者，登录和登出由控制台驱动。
type Provider struct {
	mu      sync.RWMutex
	current service.IdentitySnapshot
	changes chan service.IdentitySnapshot
	closed  bool
	log     logger.Logger
}

// NewProvider creates a provider whose first snapshot is initial.
func NewProvider(initial service.IdentitySnapshot, log logger.Logger) *Provider {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Provider{
		current: initial,
		changes: make(chan service.IdentitySnapshot, changeBuffer),
		log:     log.WithComponent("identity-provider"),
	}
}

// Current implements service.IdentityProvider.
func (p *Provider) Current() service.IdentitySnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Changes implements service.IdentityProvider.
func (p *Provider) Changes() <-chan service.IdentitySnapshot {
	return p.changes
}

// Set publishes a new snapshot. When the observer lags, the oldest unread snapshot is dropped
// so the newest one always arrives.
func (p *Provider) Set(snap service.IdentitySnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.current = snap
	for {
		select {
		case p.changes <- snap:
			return
		default:
		}
		select {
		case <-p.changes:
		default:
		}
	}
}

// SignIn publishes the user carried by token with a session that always returns it.
func (p *Provider) SignIn(ctx context.Context, token string) error {
	claims, err := ParseToken(token)
	if err != nil {
		return err
	}
	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = claims.User.ID
	}
	p.Set(service.IdentitySnapshot{
		User:    claims.User,
		Loaded:  true,
		Session: NewStaticSession(sessionID, token),
	})
	p.log.Info(ctx, "Signed in", logger.String("user_id", claims.User.ID))
	return nil
}

// SignInWithSession publishes the user behind an existing session, fetching its first token.
func (p *Provider) SignInWithSession(ctx context.Context, session service.Session) error {
	token, err := session.Token(ctx)
	if err != nil {
		return err
	}
	claims, err := ParseToken(token)
	if err != nil {
		return err
	}
	p.Set(service.IdentitySnapshot{User: claims.User, Loaded: true, Session: session})
	p.log.Info(ctx, "Signed in", logger.String("user_id", claims.User.ID), logger.String("session_id", session.ID()))
	return nil
}

// SignOut publishes the signed-out snapshot.
func (p *Provider) SignOut(ctx context.Context) {
	p.Set(service.IdentitySnapshot{Loaded: true})
	p.log.Info(ctx, "Signed out")
}

// Close stops publishing and closes the change channel.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.changes)
}

var _ service.IdentityProvider = (*Provider)(nil)

// StaticSession is a session whose token never changes.
type StaticSession struct {
	id    string
	token string
}

// NewStaticSession creates a StaticSession.
func NewStaticSession(id, token string) *StaticSession {
	return &StaticSession{id: id, token: token}
}

func (s *StaticSession) ID() string { return s.id }

func (s *StaticSession) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.token, nil
}

//Personal.AI order the ending
