// Package account authenticates with the vehicle telematics service and provides access to
// vehicles belonging to the account.
//
// Authentication is a two-step exchange: the username and password are exchanged for an identity
// token, which is in turn exchanged for an access token. The access token is attached to every
// telemetry and command request. Tokens are not refreshed; callers log in again once the access
// token expires.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/connector"
	"github.com/vehiclepass/vehicle-command/pkg/connector/inet"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/units"
	"github.com/vehiclepass/vehicle-command/pkg/vehicle"
)

const (
	tokenExchangeIssuer    = "fordpass"
	tokenExchangeClientID  = "fordpass-prod"
	tokenExchangeGrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	tokenExchangeTokenType = "urn:ietf:params:oauth:token-type:jwt"
)

// Account allows interaction with a vehicle owner's account.
type Account struct {
	Username string
	// Endpoints may be overridden at any time; requests use the current value.
	Endpoints connector.Endpoints

	password string
	client   http.Client

	lock          sync.Mutex
	tokens        *TokenPair
	conn          *inet.Connection
	connEndpoints connector.Endpoints
}

// New returns an [Account] that has not yet logged in.
func New(username, password string) (*Account, error) {
	if username == "" || password == "" {
		return nil, protocol.ErrMissingCredentials
	}
	return &Account{
		Username:  username,
		Endpoints: connector.DefaultEndpoints(),
		password:  password,
		client:    http.Client{Timeout: connector.DefaultTimeout},
	}, nil
}

// NewFromTokens returns an [Account] that reuses previously obtained tokens, typically loaded from
// a [cache.TokenCache], instead of logging in.
func NewFromTokens(username string, tokens TokenPair) *Account {
	a := &Account{
		Username:  username,
		Endpoints: connector.DefaultEndpoints(),
		client:    http.Client{Timeout: connector.DefaultTimeout},
	}
	a.setTokens(&tokens)
	return a
}

func (a *Account) setTokens(tokens *TokenPair) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.tokens = tokens
	a.conn = nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (a *Account) requestToken(ctx context.Context, request *http.Request) (string, error) {
	body, err := inet.Do(ctx, &a.client, request)
	if err != nil {
		return "", err
	}
	var rsp tokenResponse
	if err := json.Unmarshal(body, &rsp); err != nil {
		return "", fmt.Errorf("%w: unable to parse token response: %s", protocol.ErrBadResponse, err)
	}
	if rsp.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token not found in token response", protocol.ErrBadResponse)
	}
	return rsp.AccessToken, nil
}

func (a *Account) fetchIdentityToken(ctx context.Context) (string, error) {
	credentials, err := json.Marshal(map[string]string{
		"username": a.Username,
		"password": a.password,
	})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoints.Login, bytes.NewReader(credentials))
	if err != nil {
		return "", fmt.Errorf("error constructing login request: %w", err)
	}
	request.Header.Set("User-Agent", connector.LoginUserAgent)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "*/*")
	return a.requestToken(ctx, request)
}

func (a *Account) exchangeToken(ctx context.Context, identityToken string) (string, error) {
	form := url.Values{}
	form.Set("subject_token", identityToken)
	form.Set("subject_issuer", tokenExchangeIssuer)
	form.Set("client_id", tokenExchangeClientID)
	form.Set("grant_type", tokenExchangeGrantType)
	form.Set("subject_token_type", tokenExchangeTokenType)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoints.TokenExchange, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error constructing token exchange request: %w", err)
	}
	request.Header.Set("User-Agent", connector.LoginUserAgent)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "*/*")
	return a.requestToken(ctx, request)
}

// Login obtains a new pair of tokens. Any previously obtained tokens are replaced.
func (a *Account) Login(ctx context.Context) error {
	if a.Username == "" || a.password == "" {
		return protocol.ErrMissingCredentials
	}
	identity, err := a.fetchIdentityToken(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	log.Info("Obtained identity token")

	access, err := a.exchangeToken(ctx, identity)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}
	log.Info("Obtained access token")

	a.setTokens(&TokenPair{Identity: identity, Access: access})
	return nil
}

// Tokens returns the tokens obtained by the most recent call to Login. The second return value is
// false if the account has not logged in.
func (a *Account) Tokens() (TokenPair, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.tokens == nil {
		return TokenPair{}, false
	}
	return *a.tokens, true
}

func (a *Account) connection() (*inet.Connection, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.tokens == nil {
		return nil, protocol.ErrNotLoggedIn
	}
	if a.conn == nil || a.connEndpoints != a.Endpoints {
		a.conn = inet.NewConnection(a.tokens.Access, a.Endpoints)
		a.connEndpoints = a.Endpoints
	}
	return a.conn, nil
}

// FetchStatus returns the raw telemetry document for vin.
func (a *Account) FetchStatus(ctx context.Context, vin string) ([]byte, error) {
	conn, err := a.connection()
	if err != nil {
		return nil, err
	}
	return conn.FetchStatus(ctx, vin)
}

// SendCommand sends a command to vin and returns the server's acknowledgement.
func (a *Account) SendCommand(ctx context.Context, vin, command string) ([]byte, error) {
	conn, err := a.connection()
	if err != nil {
		return nil, err
	}
	return conn.SendCommand(ctx, vin, command)
}

// GetVehicle returns the Vehicle belonging to the account with the provided vin. The vehicle's
// status is fetched once before returning.
func (a *Account) GetVehicle(ctx context.Context, vin string, prefs units.Preferences) (*vehicle.Vehicle, error) {
	if _, err := a.connection(); err != nil {
		return nil, err
	}
	car, err := vehicle.New(a, vin, prefs)
	if err != nil {
		return nil, err
	}
	if err := car.Refresh(ctx); err != nil {
		return nil, err
	}
	return car, nil
}
