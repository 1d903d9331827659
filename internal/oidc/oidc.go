package oidc

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
)

// Verifier checks ID tokens issued by an external OIDC provider (Keycloak)
// so federated users can call the document API with their provider token.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer and builds a verifier for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Issuer returns the realm issuer URL for the Keycloak settings.
func Issuer(kc config.KeycloakConfig) string {
	if kc.Realm == "" {
		return kc.URL
	}
	return strings.TrimRight(kc.URL, "/") + "/realms/" + kc.Realm
}

// FromConfig returns the federated verifier for cfg, or nil when Keycloak is
// not configured. With ALLOW_INSECURE_TOKEN=true a discovery failure falls
// back to the insecure verifier (integration environments only).
func FromConfig(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL == "" || cfg.Keycloak.ClientID == "" {
		return nil
	}
	ver, err := NewVerifier(ctx, Issuer(cfg.Keycloak), cfg.Keycloak.ClientID)
	if err == nil {
		return ver
	}
	logger.Warnf("failed to initialize OIDC verifier: %v", err)
	if strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN"))) == "true" {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		return NewInsecureVerifier()
	}
	return nil
}
