package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/domain"
	"github.com/spec-kit/library-gateway/internal/events"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

// ErrSuperseded is returned by Login and Register when a logout or another
// login committed while the call was in flight.
var ErrSuperseded = errors.New("session superseded by a newer operation")

// IdentityFetcher resolves the verified identity behind a credential.
type IdentityFetcher interface {
	CurrentIdentity(ctx context.Context, credential string) (*domain.Identity, error)
}

// CredentialIssuer issues and revokes credentials.
type CredentialIssuer interface {
	Login(ctx context.Context, email, password string) (*domain.IssuedCredential, error)
	Register(ctx context.Context, registration domain.Registration) (*domain.IssuedCredential, error)
	Logout(ctx context.Context, credential string) error
}

// State is the coordinator lifecycle phase.
type State int

const (
	StateBootstrapping State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is the published session state.
type Snapshot struct {
	Identity *domain.Identity
	Loading  bool
}

// State derives the lifecycle phase from the snapshot.
func (s Snapshot) State() State {
	switch {
	case s.Loading:
		return StateBootstrapping
	case s.Identity != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Options groups dependencies for the Coordinator.
type Options struct {
	Store      CredentialStore
	Identities IdentityFetcher
	Issuer     CredentialIssuer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// Coordinator owns the client-side session: it is the only writer of the
// identity and of the persisted credential.
//
// Every state commit is tagged with the epoch observed when its collaborator
// call started. Login, Register and Logout advance the epoch, so a fetch that
// resolves after one of them is discarded. Bootstrap and Refresh do not
// advance it and race last-write-wins.
type Coordinator struct {
	store      CredentialStore
	identities IdentityFetcher
	issuer     CredentialIssuer
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	epoch    uint64
	snapshot Snapshot

	bootstrapOnce sync.Once
}

// NewCoordinator constructs a coordinator in the Bootstrapping state.
func NewCoordinator(opts Options) *Coordinator {
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewSessionBus()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:      opts.Store,
		identities: opts.Identities,
		issuer:     opts.Issuer,
		dispatcher: dispatcher,
		logger:     logger,
		snapshot:   Snapshot{Loading: true},
	}
}

// Snapshot returns a copy of the current session state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Identity: cloneIdentity(c.snapshot.Identity), Loading: c.snapshot.Loading}
}

// Subscribe registers fn for every session event.
func (c *Coordinator) Subscribe(fn events.Listener) {
	for _, eventType := range events.SessionEventTypes {
		c.dispatcher.Subscribe(eventType, fn)
	}
}

// Bootstrap resolves the persisted credential into an identity. It runs at
// most once per coordinator; later calls return the current state. Failures
// never escape: they end in the Anonymous state.
func (c *Coordinator) Bootstrap(ctx context.Context) Snapshot {
	c.bootstrapOnce.Do(func() {
		c.bootstrap(ctx)
	})
	return c.Snapshot()
}

func (c *Coordinator) bootstrap(ctx context.Context) {
	epoch := c.currentEpoch()

	credential, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("read persisted credential", zap.Error(err))
		c.commit(ctx, epoch, nil, events.EventSessionBootstrapped)
		return
	}
	if credential == "" {
		c.commit(ctx, epoch, nil, events.EventSessionBootstrapped)
		return
	}

	identity, err := c.fetch(ctx, credential)
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned, not rejected: the credential stays for the next run.
			c.logger.Debug("bootstrap abandoned", zap.Error(ctx.Err()))
			c.commit(ctx, epoch, nil, events.EventSessionBootstrapped)
			return
		}
		c.logger.Warn("bootstrap identity fetch failed", zap.Error(err))
		c.discard(ctx, epoch)
		return
	}
	c.commit(ctx, epoch, identity, events.EventSessionBootstrapped)
}

// Login exchanges email and password for a credential and establishes the
// session. Issuer errors are returned unchanged.
func (c *Coordinator) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	epoch := c.currentEpoch()
	issued, err := c.issuer.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, epoch, issued)
}

// Register opens an account; issuance implies login.
func (c *Coordinator) Register(ctx context.Context, registration domain.Registration) (*domain.Identity, error) {
	epoch := c.currentEpoch()
	issued, err := c.issuer.Register(ctx, registration)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, epoch, issued)
}

// Logout revokes the credential remotely and then clears local state no
// matter how the remote call went. The remote error, if any, is returned
// after the local clear.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	credential, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("read persisted credential", zap.Error(err))
	}

	var remoteErr error
	if credential != "" && c.issuer != nil {
		if remoteErr = c.issuer.Logout(ctx, credential); remoteErr != nil {
			c.logger.Warn("remote logout failed", zap.Error(remoteErr))
		}
	}

	c.mu.Lock()
	if epoch != c.epoch {
		// A login committed after this logout started; it wins.
		c.mu.Unlock()
		return remoteErr
	}
	clearErr := c.store.Clear(context.WithoutCancel(ctx))
	c.snapshot = Snapshot{}
	c.mu.Unlock()

	c.publish(ctx, epoch, events.EventSessionCleared, Snapshot{})
	if clearErr != nil {
		clearErr = fmt.Errorf("clear persisted credential: %w", clearErr)
	}
	return errors.Join(remoteErr, clearErr)
}

// Refresh re-fetches the identity. On failure the previous identity is kept
// and the current state is returned.
func (c *Coordinator) Refresh(ctx context.Context) Snapshot {
	epoch := c.currentEpoch()

	credential, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("read persisted credential", zap.Error(err))
		return c.Snapshot()
	}
	if credential == "" {
		c.logger.Debug("refresh skipped: no credential")
		return c.Snapshot()
	}

	identity, err := c.fetch(ctx, credential)
	if err != nil {
		c.logger.Warn("refresh identity fetch failed", zap.Error(err))
		return c.Snapshot()
	}
	c.commit(ctx, epoch, identity, events.EventSessionRefreshed)
	return c.Snapshot()
}

func (c *Coordinator) establish(ctx context.Context, epoch uint64, issued *domain.IssuedCredential) (*domain.Identity, error) {
	if issued == nil || issued.Identity == nil || issued.Credential == "" {
		return nil, apperrors.NewIssuanceError("issuer returned an incomplete credential", http.StatusBadGateway, nil)
	}

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err := c.store.Set(context.WithoutCancel(ctx), issued.Credential); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("persist credential: %w", err)
	}
	c.epoch++
	next := Snapshot{Identity: cloneIdentity(issued.Identity)}
	c.snapshot = next
	epoch = c.epoch
	c.mu.Unlock()

	c.publish(ctx, epoch, events.EventSessionAuthenticated, next)
	return cloneIdentity(issued.Identity), nil
}

// commit publishes identity (nil for anonymous) unless the epoch moved on.
func (c *Coordinator) commit(ctx context.Context, epoch uint64, identity *domain.Identity, eventType events.EventType) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("discarded stale session result", zap.Uint64("epoch", epoch), zap.String("event", string(eventType)))
		return false
	}
	next := Snapshot{Identity: cloneIdentity(identity)}
	c.snapshot = next
	c.mu.Unlock()

	c.publish(ctx, epoch, eventType, next)
	return true
}

// discard drops a credential the identity service rejected and ends the
// bootstrap anonymous.
func (c *Coordinator) discard(ctx context.Context, epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("clear rejected credential", zap.Error(err))
	}
	c.snapshot = Snapshot{}
	c.mu.Unlock()

	c.publish(ctx, epoch, events.EventSessionBootstrapped, Snapshot{})
}

// fetch calls the identity service once. A cancelled context abandons the
// call instead of waiting for it.
func (c *Coordinator) fetch(ctx context.Context, credential string) (*domain.Identity, error) {
	type result struct {
		identity *domain.Identity
		err      error
	}
	done := make(chan result, 1)
	go func() {
		identity, err := c.identities.CurrentIdentity(ctx, credential)
		done <- result{identity: identity, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, apperrors.NewIdentityFetchFailure(res.err)
		}
		if res.identity == nil {
			return nil, apperrors.NewIdentityFetchFailure(errors.New("empty identity"))
		}
		return res.identity, nil
	}
}

func (c *Coordinator) publish(ctx context.Context, epoch uint64, eventType events.EventType, snap Snapshot) {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Epoch:     epoch,
		Timestamp: time.Now().UTC(),
		Payload:   events.SessionPayload{Identity: snap.Identity, Loading: snap.Loading},
	}
	if err := c.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn("session listener failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func (c *Coordinator) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func cloneIdentity(identity *domain.Identity) *domain.Identity {
	if identity == nil {
		return nil
	}
	clone := *identity
	return &clone
}
