// Package broker manages the brokerage credential lifecycle and reconciles
// holdings against open orders.
package broker

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrAuthExpired marks a refresh-token exchange failure; the session falls
// back to interactive authorization before surfacing anything to the caller.
var ErrAuthExpired = errors.New("broker: auth expired")

// ErrAuthFailed is terminal: interactive authorization also failed and every
// dependent operation must fail.
var ErrAuthFailed = errors.New("broker: authentication failed")

type sessionState int

const (
	stateUnauthenticated sessionState = iota
	stateRefreshing
	stateReauthorizing
	stateAuthenticated
)

// Session owns the brokerage credentials. The access token lives in memory
// only; the refresh token is persisted through the TokenStore immediately
// after every change, before it is ever used.
type Session struct {
	APIKey    string
	APISecret string
	BaseURL   string

	store  TokenStore
	client *http.Client
	prompt io.Reader // source of the pasted redirect URL

	state       sessionState
	accessToken string
	accountHash string
}

// NewSession authenticates against the brokerage: first by exchanging the
// persisted refresh token, then by full interactive authorization if the
// exchange fails. The account hash is resolved exactly once on success.
func NewSession(baseURL, apiKey, apiSecret, tokenFile string) (*Session, error) {
	return newSession(baseURL, apiKey, apiSecret, tokenFile, os.Stdin)
}

func newSession(baseURL, apiKey, apiSecret, tokenFile string, prompt io.Reader) (*Session, error) {
	s := &Session{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
		store:     TokenStore{Path: tokenFile},
		client:    &http.Client{Timeout: 30 * time.Second},
		prompt:    prompt,
		state:     stateUnauthenticated,
	}
	if err := s.authenticate(); err != nil {
		return nil, err
	}
	hash, err := s.resolveAccountHash()
	if err != nil {
		return nil, fmt.Errorf("resolve account hash: %w", err)
	}
	s.accountHash = hash
	return s, nil
}

// tokenResponse is the token endpoint's reply for both grant types.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (s *Session) authenticate() error {
	s.state = stateRefreshing

	if refresh := s.store.Load(); refresh != "" {
		tokens, err := s.exchangeToken(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refresh},
		})
		if err == nil {
			return s.adopt(tokens)
		}
		log.Printf("[WARN] refresh-token exchange failed: %v, starting authorization from scratch", err)
	} else {
		log.Printf("[WARN] no saved refresh token, starting authorization from scratch")
	}

	s.state = stateReauthorizing
	tokens, err := s.authorizeInteractive()
	if err != nil {
		s.state = stateUnauthenticated
		return fmt.Errorf("interactive authorization: %v: %w", err, ErrAuthFailed)
	}
	return s.adopt(tokens)
}

// adopt persists the refresh token before exposing the access token, so a
// crash cannot strand a valid-but-unsaved token.
func (s *Session) adopt(tokens *tokenResponse) error {
	if tokens.RefreshToken == "" || tokens.AccessToken == "" {
		s.state = stateUnauthenticated
		return fmt.Errorf("token endpoint returned incomplete pair: %w", ErrAuthFailed)
	}
	if err := s.store.Save(tokens.RefreshToken); err != nil {
		s.state = stateUnauthenticated
		return fmt.Errorf("persist refresh token: %v: %w", err, ErrAuthFailed)
	}
	s.accessToken = tokens.AccessToken
	s.state = stateAuthenticated
	log.Printf("[INFO] brokerage session authenticated")
	return nil
}

func (s *Session) exchangeToken(form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequest("POST", s.BaseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(s.APIKey + ":" + s.APISecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("token read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint: status %d, body: %s: %w", resp.StatusCode, string(body), ErrAuthExpired)
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("token decode: %w", err)
	}
	return &tokens, nil
}

// authorizeInteractive runs the full consent flow: print the provider's
// consent URL, read the pasted redirect URL, and exchange its code for tokens.
func (s *Session) authorizeInteractive() (*tokenResponse, error) {
	consentURL := fmt.Sprintf("%s/v1/oauth/authorize?client_id=%s&redirect_uri=https://127.0.0.1", s.BaseURL, s.APIKey)
	fmt.Printf("Open the following URL, authorize the app, then paste the returned URL:\n%s\n> ", consentURL)

	returned, err := bufio.NewReader(s.prompt).ReadString('\n')
	if err != nil && returned == "" {
		return nil, fmt.Errorf("read redirect URL: %w", err)
	}
	code, err := extractAuthCode(strings.TrimSpace(returned))
	if err != nil {
		return nil, err
	}

	return s.exchangeToken(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {"https://127.0.0.1"},
	})
}

// extractAuthCode pulls the authorization code out of the pasted redirect URL.
// The provider URL-encodes a trailing "@" as %40; it must be restored.
func extractAuthCode(returnedURL string) (string, error) {
	start := strings.Index(returnedURL, "code=")
	if start < 0 {
		return "", fmt.Errorf("redirect URL has no code parameter")
	}
	end := strings.Index(returnedURL, "%40")
	if end < 0 || end < start {
		return "", fmt.Errorf("redirect URL has no %%40 terminator")
	}
	return returnedURL[start+len("code="):end] + "@", nil
}

func (s *Session) resolveAccountHash() (string, error) {
	req, err := http.NewRequest("GET", s.BaseURL+"/trader/v1/accounts/accountNumbers", nil)
	if err != nil {
		return "", err
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("account numbers request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("account numbers read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("account numbers: status %d, body: %s", resp.StatusCode, string(body))
	}

	var accounts []struct {
		AccountNumber string `json:"accountNumber"`
		HashValue     string `json:"hashValue"`
	}
	if err := json.Unmarshal(body, &accounts); err != nil {
		return "", fmt.Errorf("account numbers decode: %w", err)
	}
	if len(accounts) == 0 || accounts[0].HashValue == "" {
		return "", fmt.Errorf("no account hash returned")
	}
	return accounts[0].HashValue, nil
}

// authorize attaches the bearer access token to a brokerage request.
func (s *Session) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
}

// AccountHash returns the opaque account reference resolved at session start.
func (s *Session) AccountHash() string { return s.accountHash }

// Authenticated reports whether the session holds a live access token.
func (s *Session) Authenticated() bool { return s.state == stateAuthenticated }
