package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/logger"
)

// SessionTracker mirrors identity-provider changes into the store and keeps the bearer token fresh.
type SessionTracker struct {
	deps  Dependencies
	log   logger.Logger
	audit *logger.AuditLogger

	// mu guards generation and cancel. A refresh applies its result while holding mu,
	// so the generation check and the dispatch cannot interleave with a newer Observe.
	// Store listeners therefore must not call Observe synchronously.
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	lastUserID string
	wg         sync.WaitGroup
}

// NewSessionTracker creates a SessionTracker.
func NewSessionTracker(deps Dependencies) *SessionTracker {
	deps = deps.withDefaults()
	return &SessionTracker{
		deps:  deps,
		log:   deps.Logger.WithComponent("session-tracker"),
		audit: logger.NewAuditLogger(deps.Logger),
	}
}

// Observe applies one (user, loaded, session) observation. It never blocks on the network:
// the token refresh, if any, runs in the background and supersedes every earlier one.
func (t *SessionTracker) Observe(ctx context.Context, snap domainservice.IdentitySnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	gen := t.generation
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	t.deps.Store.Dispatch(state.SetUser(snap.User))
	t.deps.Store.Dispatch(state.SetUserLoaded(snap.Loaded))
	t.auditUserChange(ctx, snap.User)

	if !snap.Complete() {
		t.deps.Store.Dispatch(state.SetToken(""))
		t.deps.Store.Dispatch(state.SetTokenLoading(false))
		t.deps.Metrics.RecordTokenRefresh("skipped", 0)
		return
	}

	t.deps.Store.Dispatch(state.SetTokenLoading(true))

	refreshCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel
	t.wg.Add(1)
	go t.refresh(refreshCtx, gen, snap.Session)
}

// Run observes the provider's current triple and then every change until ctx ends or the provider closes.
func (t *SessionTracker) Run(ctx context.Context, provider domainservice.IdentityProvider) error {
	t.Observe(ctx, provider.Current())

	changes := provider.Changes()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-changes:
			if !ok {
				return nil
			}
			t.Observe(ctx, snap)
		}
	}
}

// Wait blocks until every started refresh has finished.
func (t *SessionTracker) Wait() {
	t.wg.Wait()
}

// Close cancels the in-flight refresh. Its result, if it still arrives, is discarded.
func (t *SessionTracker) Close() {
	t.mu.Lock()
	t.generation++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *SessionTracker) refresh(ctx context.Context, gen uint64, session domainservice.Session) {
	defer t.wg.Done()

	start := time.Now()
	token, err := session.Token(ctx)
	elapsed := time.Since(start)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		t.deps.Metrics.RecordTokenRefresh("stale", elapsed)
		t.log.Debug(ctx, "Discarding superseded token refresh", logger.Int64("generation", int64(gen)))
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	if err != nil {
		t.deps.Store.Dispatch(state.SetToken(""))
		t.deps.Errors.Set(constants.ErrorKeyJWT, fmt.Sprintf(constants.MsgTokenRetrievalFailedFmt, err.Error()))
		t.deps.Metrics.RecordTokenRefresh("failure", elapsed)
		t.log.Warn(ctx, "Token refresh failed", logger.String("session_id", session.ID()), logger.Err(err))
		return
	}

	if token == constants.NullToken {
		token = ""
	}
	t.deps.Store.Dispatch(state.SetToken(token))
	t.deps.Errors.Clear(constants.ErrorKeyJWT)
	t.deps.Metrics.RecordTokenRefresh("success", elapsed)
	t.log.Debug(ctx, "Token refreshed", logger.String("session_id", session.ID()), logger.Bool("has_token", token != ""))
}

func (t *SessionTracker) auditUserChange(ctx context.Context, user *models.User) {
	id := ""
	if user != nil {
		id = user.ID
	}
	if id == t.lastUserID {
		return
	}
	previous := t.lastUserID
	t.lastUserID = id
	if id == "" {
		t.audit.LogSessionChanged(ctx, previous, false)
		return
	}
	t.audit.LogSessionChanged(ctx, id, true)
}
