package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marminbh/location-svc/internal/models"
)

// GatewayIdentityProvider trusts identity assertions minted by the upstream
// auth gateway. The gateway verifies credentials and forwards the identity
// as a JSON document ({"entity_id": …, "entity_kind": …}); by the time a
// connection reaches this service the identity is already authenticated.
// Satisfies lifecycle.IdentityProvider.
type GatewayIdentityProvider struct{}

// Authenticate parses the forwarded identity assertion.
func (GatewayIdentityProvider) Authenticate(_ context.Context, credentials string) (models.Identity, error) {
	if credentials == "" {
		return models.Identity{}, fmt.Errorf("missing identity assertion")
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(credentials), &identity); err != nil {
		return models.Identity{}, fmt.Errorf("malformed identity assertion: %w", err)
	}
	if identity.EntityID == "" {
		return models.Identity{}, fmt.Errorf("identity assertion missing entity_id")
	}
	if !identity.Kind.Valid() {
		return models.Identity{}, fmt.Errorf("identity assertion has unknown entity_kind %q", identity.Kind)
	}
	return identity, nil
}
