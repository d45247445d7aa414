// Package inet implements the HTTPS transport used to fetch vehicle status and send commands.
package inet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/connector"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
)

func ReadWithContext(ctx context.Context, r io.Reader, p []byte) ([]byte, error) {
	bytesRead := 0
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, err := r.Read(p[bytesRead:])
		bytesRead += n
		if err == io.EOF {
			return p[:bytesRead], nil
		}
		if err != nil {
			return p[:bytesRead], err
		}
		if bytesRead == len(p) {
			return p[:bytesRead], nil
		}
	}
}

// HttpError is returned when the server responds with a non-2xx status code. Callers can inspect
// Code to distinguish, for example, a 403 returned after too many remote start requests.
type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Message)
}

func (e *HttpError) MayHaveSucceeded() bool {
	if e.Code >= 400 && e.Code < 500 {
		return false
	}
	return e.Code != http.StatusServiceUnavailable
}

func (e *HttpError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

// Do sends request and returns the response body. Non-2xx responses produce an *HttpError.
func Do(ctx context.Context, client *http.Client, request *http.Request) ([]byte, error) {
	log.Debug("Sending %s request to %s", request.Method, request.URL)
	result, err := client.Do(request.WithContext(ctx))
	if err != nil {
		return nil, &protocol.CommandError{Err: err, PossibleSuccess: false, PossibleTemporary: true}
	}
	defer result.Body.Close()

	body := make([]byte, connector.MaxResponseLength+1)
	body, err = ReadWithContext(ctx, result.Body, body)
	if err != nil {
		return nil, &protocol.CommandError{Err: err, PossibleSuccess: true, PossibleTemporary: false}
	}
	if len(body) == connector.MaxResponseLength+1 {
		return nil, protocol.NewError("response exceeds maximum length", true, true)
	}

	log.Debug("Server returned %d: %s: %s", result.StatusCode, http.StatusText(result.StatusCode), body)
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		log.Error("Request to %s failed with status %d", request.URL, result.StatusCode)
		return nil, &HttpError{Code: result.StatusCode, Message: string(bytes.TrimSpace(body))}
	}
	return body, nil
}

// Connection sends authenticated requests to the telemetry and command endpoints. It implements
// the vehicle.TelemetryClient interface.
type Connection struct {
	UserAgent     string
	ApplicationID string
	endpoints     connector.Endpoints
	client        http.Client
	authHeader    string
}

// NewConnection creates a Connection that authenticates with accessToken.
func NewConnection(accessToken string, endpoints connector.Endpoints) *Connection {
	return &Connection{
		UserAgent:     connector.UserAgent,
		ApplicationID: connector.ApplicationID,
		endpoints:     endpoints,
		client:        http.Client{Timeout: connector.DefaultTimeout},
		authHeader:    "Bearer " + accessToken,
	}
}

func (c *Connection) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &protocol.CommandError{Err: err, PossibleSuccess: false, PossibleTemporary: false}
	}
	request.Header.Set("User-Agent", c.UserAgent)
	request.Header.Set("Application-Id", c.ApplicationID)
	request.Header.Set("Authorization", c.authHeader)
	request.Header.Set("Accept", "*/*")
	request.Header.Set("Accept-Language", "en-US")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return request, nil
}

// FetchStatus returns the raw telemetry document for vin.
func (c *Connection) FetchStatus(ctx context.Context, vin string) ([]byte, error) {
	request, err := c.newRequest(ctx, http.MethodGet, c.endpoints.StatusURL(vin), nil)
	if err != nil {
		return nil, err
	}
	return Do(ctx, &c.client, request)
}

type commandRequest struct {
	Type   string `json:"type"`
	WakeUp bool   `json:"wakeUp"`
}

// SendCommand posts command to vin and returns the server's acknowledgement. The acknowledgement
// only means the command was queued; it does not mean the vehicle acted on it.
func (c *Connection) SendCommand(ctx context.Context, vin, command string) ([]byte, error) {
	body, err := json.Marshal(commandRequest{Type: command, WakeUp: true})
	if err != nil {
		return nil, err
	}
	request, err := c.newRequest(ctx, http.MethodPost, c.endpoints.CommandURL(vin), body)
	if err != nil {
		return nil, err
	}
	log.Debugw("Sending command", "command", command, "vin", vin)
	return Do(ctx, &c.client, request)
}
