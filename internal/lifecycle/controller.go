// Package lifecycle drives the presence registry through a connection's
// life: authenticate on handshake, register, touch on activity, disconnect
// on close. It is transport-agnostic: the websocket (or any bidirectional)
// transport hands it an opaque socket ID and events in connection order.
package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/models"
)

// IdentityProvider is the external auth collaborator. The returned identity
// is already verified; a failure rejects the connection before any registry
// write.
type IdentityProvider interface {
	Authenticate(ctx context.Context, credentials string) (models.Identity, error)
}

// Registry is the slice of the presence registry the controller drives.
type Registry interface {
	Register(ctx context.Context, kind models.EntityKind, socketID, entityID string) error
	Lookup(ctx context.Context, kind models.EntityKind, socketID string) (string, bool, error)
	Touch(ctx context.Context, kind models.EntityKind, socketID, entityID string) error
	Disconnect(ctx context.Context, kind models.EntityKind, socketID, entityID string) error
}

// State of a connection's presence session.
type State int

const (
	StateConnecting State = iota
	StateRegistered
	StateDisconnected
)

// Session is one connection's presence session. The transport layer
// serializes events per connection, so Session methods are not called
// concurrently for the same connection.
type Session struct {
	SocketID string
	Identity models.Identity
	state    State
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Controller orchestrates registry calls for all connections.
type Controller struct {
	registry Registry
	auth     IdentityProvider
	logger   *zap.Logger
}

// NewController creates a Controller.
func NewController(registry Registry, auth IdentityProvider, logger *zap.Logger) *Controller {
	return &Controller{registry: registry, auth: auth, logger: logger}
}

// Connect runs the handshake: authenticate, then register presence. An
// authentication failure is terminal and leaves no registry state.
func (c *Controller) Connect(ctx context.Context, socketID, credentials string) (*Session, error) {
	identity, err := c.auth.Authenticate(ctx, credentials)
	if err != nil {
		return nil, fmt.Errorf("authenticate connection %s: %w", socketID, err)
	}
	if identity.EntityID == "" || !identity.Kind.Valid() {
		return nil, models.NewValidationError("identity", identity, "missing entity id or kind")
	}

	if err := c.registry.Register(ctx, identity.Kind, socketID, identity.EntityID); err != nil {
		return nil, err
	}

	c.logger.Info("Connection registered",
		zap.String("socket_id", socketID),
		zap.String("kind", string(identity.Kind)),
		zap.String("entity_id", identity.EntityID),
	)
	return &Session{SocketID: socketID, Identity: identity, state: StateRegistered}, nil
}

// Activity refreshes presence on any inbound traffic (heartbeat or location
// report). Touch failures are logged but non-fatal: the connection stays
// usable and the next touch may self-heal the registry entry.
func (c *Controller) Activity(ctx context.Context, s *Session) {
	if s.state != StateRegistered {
		return
	}
	if err := c.registry.Touch(ctx, s.Identity.Kind, s.SocketID, s.Identity.EntityID); err != nil {
		c.logger.Warn("Failed to refresh presence",
			zap.String("socket_id", s.SocketID),
			zap.String("entity_id", s.Identity.EntityID),
			zap.Error(err),
		)
	}
}

// Disconnect tears the session down on transport close. A registry entry
// that already expired is expected under the TTL race and skipped with a
// warning, not an error.
func (c *Controller) Disconnect(ctx context.Context, s *Session) error {
	if s.state == StateDisconnected {
		return nil
	}
	s.state = StateDisconnected

	_, ok, err := c.registry.Lookup(ctx, s.Identity.Kind, s.SocketID)
	if err != nil {
		return fmt.Errorf("lookup at disconnect %s: %w", s.SocketID, err)
	}
	if !ok {
		c.logger.Warn("Presence entry already expired at disconnect",
			zap.String("socket_id", s.SocketID),
			zap.String("entity_id", s.Identity.EntityID),
		)
		return nil
	}

	if err := c.registry.Disconnect(ctx, s.Identity.Kind, s.SocketID, s.Identity.EntityID); err != nil {
		return err
	}

	c.logger.Info("Connection disconnected",
		zap.String("socket_id", s.SocketID),
		zap.String("entity_id", s.Identity.EntityID),
	)
	return nil
}
