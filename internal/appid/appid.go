package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/miminai/mimin/internal/assets/appidentity"
)

func init() {
	// Best-effort registration.
	//
	// FULMEN_APP_IDENTITY_PATH stays authoritative. The embedded identity covers
	// binaries started outside a checkout.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Fallback is used when no identity document can be loaded.
var Fallback = appidentity.Identity{
	BinaryName:  "mimin",
	Vendor:      "miminai",
	EnvPrefix:   "MIMIN_",
	ConfigName:  "mimin",
	Description: "Question answering backend with math solving, web search and answer synthesis",
}

// Get returns the application identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// MustGet returns the loaded identity or Fallback.
func MustGet(ctx context.Context) *appidentity.Identity {
	identity, err := appidentity.Get(ctx)
	if err != nil || identity == nil || identity.BinaryName == "" {
		fallback := Fallback
		return &fallback
	}
	return identity
}
