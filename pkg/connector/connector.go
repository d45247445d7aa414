// Package connector holds the endpoints and identifiers shared by the HTTP transport and the
// account login flow.
package connector

import (
	"fmt"
	"strings"
	"time"
)

// MaxResponseLength caps the maximum byte-length of responses that connectors must support.
const MaxResponseLength = 1000000

// DefaultTimeout bounds a single HTTP round trip. Commands are acknowledged before the vehicle acts
// on them, so requests should never take long.
const DefaultTimeout = 30 * time.Second

const (
	// UserAgent is sent with telemetry and command requests.
	UserAgent = "FordPass/2 CFNetwork/1475 Darwin/23.0.0"
	// LoginUserAgent is sent with the initial credential exchange.
	LoginUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Mobile/15E148 Safari/604.1"
	// ApplicationID identifies the mobile application to the telemetry API.
	ApplicationID = "71A3AD0A-CF46-4CCF-B473-FC7FE5BC4592"
)

// Endpoints holds the URLs used to authenticate and communicate with vehicles. Tests and
// development builds may override them.
type Endpoints struct {
	// Login exchanges a username and password for an identity token.
	Login string
	// TokenExchange exchanges an identity token for an access token.
	TokenExchange string
	// Telemetry is the base URL for vehicle status; the VIN is appended.
	Telemetry string
	// Command is the base URL for vehicle commands; "/{vin}/commands" is appended.
	Command string
}

// DefaultEndpoints returns the production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:         "https://us-central1-ford-connected-car.cloudfunctions.net/api/auth",
		TokenExchange: "https://accounts.autonomic.ai/v1/auth/oidc/token",
		Telemetry:     "https://api.autonomic.ai/v1/telemetry/sources/fordpass/vehicles",
		Command:       "https://api.autonomic.ai/v1/command/vehicles",
	}
}

// StatusURL returns the telemetry URL for vin.
func (e Endpoints) StatusURL(vin string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(e.Telemetry, "/"), vin)
}

// CommandURL returns the command URL for vin.
func (e Endpoints) CommandURL(vin string) string {
	return fmt.Sprintf("%s/%s/commands", strings.TrimSuffix(e.Command, "/"), vin)
}
