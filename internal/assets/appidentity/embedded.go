// Package appidentityassets embeds the application identity so binaries run
// outside a checkout still resolve their name, env prefix and config dir.
package appidentityassets

import _ "embed"

// YAML mirrors .fulmen/app.yaml; appid tests fail when the two drift from
// appid.Fallback.
//
//go:embed app.yaml
var YAML []byte
