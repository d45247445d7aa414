package account_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vehiclepass/vehicle-command/pkg/account"
	"github.com/vehiclepass/vehicle-command/pkg/connector"
	"github.com/vehiclepass/vehicle-command/pkg/connector/inet"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

const (
	vin           = "MOCK12345"
	identityToken = "identity-token-12345"
)

func signedToken(subject string, issued, expires time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte("not-a-real-key"))
	Expect(err).NotTo(HaveOccurred())
	return signed
}

var _ = Describe("Account", func() {
	var (
		endpoints   connector.Endpoints
		accessToken string
		ctx         context.Context
	)

	registerLogin := func() {
		httpmock.RegisterResponder(http.MethodPost, endpoints.Login, func(r *http.Request) (*http.Response, error) {
			Expect(r.Header.Get("User-Agent")).To(Equal(connector.LoginUserAgent))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			var credentials map[string]string
			Expect(json.Unmarshal(body, &credentials)).To(Succeed())
			Expect(credentials).To(Equal(map[string]string{"username": "user@example.com", "password": "hunter2"}))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{"access_token": identityToken})
		})
		httpmock.RegisterResponder(http.MethodPost, endpoints.TokenExchange, func(r *http.Request) (*http.Response, error) {
			Expect(r.ParseForm()).To(Succeed())
			Expect(r.PostForm.Get("subject_token")).To(Equal(identityToken))
			Expect(r.PostForm.Get("subject_issuer")).To(Equal("fordpass"))
			Expect(r.PostForm.Get("client_id")).To(Equal("fordpass-prod"))
			Expect(r.PostForm.Get("grant_type")).To(Equal("urn:ietf:params:oauth:grant-type:token-exchange"))
			Expect(r.PostForm.Get("subject_token_type")).To(Equal("urn:ietf:params:oauth:token-type:jwt"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"access_token": accessToken,
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		})
	}

	loggedIn := func() *account.Account {
		registerLogin()
		acct, err := account.New("user@example.com", "hunter2")
		Expect(err).NotTo(HaveOccurred())
		Expect(acct.Login(ctx)).To(Succeed())
		return acct
	}

	BeforeEach(func() {
		httpmock.Activate()
		DeferCleanup(httpmock.DeactivateAndReset)
		ctx = context.Background()
		endpoints = connector.DefaultEndpoints()
		accessToken = signedToken("owner-1", time.Now(), time.Now().Add(time.Hour))
	})

	Describe("New", func() {
		It("requires a username and password", func() {
			_, err := account.New("", "hunter2")
			Expect(err).To(MatchError(protocol.ErrMissingCredentials))
			_, err = account.New("user@example.com", "")
			Expect(err).To(MatchError(protocol.ErrMissingCredentials))
		})
	})

	Describe("Login", func() {
		It("chains the credential and token exchanges", func() {
			acct := loggedIn()
			tokens, ok := acct.Tokens()
			Expect(ok).To(BeTrue())
			Expect(tokens.Identity).To(Equal(identityToken))
			Expect(tokens.Access).To(Equal(accessToken))
			Expect(httpmock.GetTotalCallCount()).To(Equal(2))
		})

		It("returns the HTTP error when credentials are rejected", func() {
			httpmock.RegisterResponder(http.MethodPost, endpoints.Login,
				httpmock.NewStringResponder(http.StatusUnauthorized, `{"error": "invalid credentials"}`))
			acct, err := account.New("user@example.com", "wrong")
			Expect(err).NotTo(HaveOccurred())

			err = acct.Login(ctx)
			var httpErr *inet.HttpError
			Expect(errors.As(err, &httpErr)).To(BeTrue())
			Expect(httpErr.Code).To(Equal(http.StatusUnauthorized))
			_, ok := acct.Tokens()
			Expect(ok).To(BeFalse())
		})

		It("rejects a token response without an access token", func() {
			httpmock.RegisterResponder(http.MethodPost, endpoints.Login,
				httpmock.NewStringResponder(http.StatusOK, `{"token_type": "Bearer"}`))
			acct, err := account.New("user@example.com", "hunter2")
			Expect(err).NotTo(HaveOccurred())
			Expect(acct.Login(ctx)).To(MatchError(protocol.ErrBadResponse))
		})
	})

	Describe("requests", func() {
		It("refuses to send requests before logging in", func() {
			acct, err := account.New("user@example.com", "hunter2")
			Expect(err).NotTo(HaveOccurred())
			_, err = acct.FetchStatus(ctx, vin)
			Expect(err).To(MatchError(protocol.ErrNotLoggedIn))
			_, err = acct.SendCommand(ctx, vin, "lock")
			Expect(err).To(MatchError(protocol.ErrNotLoggedIn))
		})

		It("attaches the access token to status requests", func() {
			acct := loggedIn()
			httpmock.RegisterResponder(http.MethodGet, endpoints.StatusURL(vin), func(r *http.Request) (*http.Response, error) {
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer " + accessToken))
				Expect(r.Header.Get("Application-Id")).To(Equal(connector.ApplicationID))
				return httpmock.NewStringResponse(http.StatusOK, `{"metrics": {}}`), nil
			})
			body, err := acct.FetchStatus(ctx, vin)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(`{"metrics": {}}`))
		})

		It("posts commands with the wake up flag", func() {
			acct := loggedIn()
			httpmock.RegisterResponder(http.MethodPost, endpoints.CommandURL(vin), func(r *http.Request) (*http.Response, error) {
				body, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(body).To(MatchJSON(`{"type": "remoteStart", "wakeUp": true}`))
				return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
					"currentStatus": "REQUESTED",
					"statusReason":  "Command in progress",
				})
			})
			ack, err := acct.SendCommand(ctx, vin, "remoteStart")
			Expect(err).NotTo(HaveOccurred())
			Expect(ack).To(MatchJSON(`{"currentStatus": "REQUESTED", "statusReason": "Command in progress"}`))
		})

		It("passes transport errors through unchanged", func() {
			acct := loggedIn()
			httpmock.RegisterResponder(http.MethodPost, endpoints.CommandURL(vin),
				httpmock.NewStringResponder(http.StatusForbidden, `{"error": "forbidden"}`))
			_, err := acct.SendCommand(ctx, vin, "remoteStart")
			var httpErr *inet.HttpError
			Expect(errors.As(err, &httpErr)).To(BeTrue())
			Expect(httpErr.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("GetVehicle", func() {
		It("loads the vehicle status", func() {
			acct := loggedIn()
			httpmock.RegisterResponder(http.MethodGet, endpoints.StatusURL(vin),
				httpmock.NewStringResponder(http.StatusOK, `{"metrics": {"odometer": {"value": 105547.0}}}`))
			car, err := acct.GetVehicle(ctx, vin, units.DefaultPreferences())
			Expect(err).NotTo(HaveOccurred())
			Expect(car.VIN()).To(Equal(vin))
			odometer, err := car.Status().Odometer()
			Expect(err).NotTo(HaveOccurred())
			Expect(odometer.String()).To(Equal("65583.84 mi"))
		})

		It("reuses cached tokens without logging in", func() {
			acct := account.NewFromTokens("user@example.com", account.TokenPair{Identity: identityToken, Access: accessToken})
			httpmock.RegisterResponder(http.MethodGet, endpoints.StatusURL(vin),
				httpmock.NewStringResponder(http.StatusOK, `{"metrics": {}}`))
			_, err := acct.GetVehicle(ctx, vin, units.DefaultPreferences())
			Expect(err).NotTo(HaveOccurred())
			Expect(httpmock.GetTotalCallCount()).To(Equal(1))
		})

		It("uses endpoints overridden after loading cached tokens", func() {
			acct := account.NewFromTokens("user@example.com", account.TokenPair{Identity: identityToken, Access: accessToken})
			acct.Endpoints.Telemetry = "https://telemetry.example.com/vehicles"
			httpmock.RegisterResponder(http.MethodGet, "https://telemetry.example.com/vehicles/"+vin,
				httpmock.NewStringResponder(http.StatusOK, `{"metrics": {}}`))
			body, err := acct.FetchStatus(ctx, vin)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(`{"metrics": {}}`))
			Expect(httpmock.GetCallCountInfo()["GET "+endpoints.StatusURL(vin)]).To(Equal(0))
		})
	})
})

var _ = Describe("TokenPair", func() {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	It("reads claims from the access token", func() {
		tokens := account.TokenPair{Access: signedToken("owner-1", now, now.Add(time.Hour))}
		subject, err := tokens.Subject()
		Expect(err).NotTo(HaveOccurred())
		Expect(subject).To(Equal("owner-1"))
		issued, err := tokens.IssuedAt()
		Expect(err).NotTo(HaveOccurred())
		Expect(issued.Equal(now)).To(BeTrue())
	})

	It("reports expiry", func() {
		tokens := account.TokenPair{Access: signedToken("owner-1", now, now.Add(time.Hour))}
		Expect(tokens.Expired(now, time.Minute)).To(BeFalse())
		Expect(tokens.Expired(now.Add(59*time.Minute+30*time.Second), time.Minute)).To(BeTrue())
		Expect(tokens.Expired(now.Add(2*time.Hour), 0)).To(BeTrue())
	})

	It("treats malformed tokens as expired", func() {
		tokens := account.TokenPair{Access: "mock-token-12345"}
		_, err := tokens.Subject()
		Expect(err).To(HaveOccurred())
		Expect(tokens.Expired(now, 0)).To(BeTrue())
	})
})
