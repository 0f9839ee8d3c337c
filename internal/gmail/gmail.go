// Package gmail handles the Google OAuth flow used to link a reader's
// inbox and keep their tokens fresh.
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mynewsletters/voicebrief/internal/catalog"
)

const (
	scopeGmailReadonly = "https://www.googleapis.com/auth/gmail.readonly"
	scopeEmail         = "https://www.googleapis.com/auth/userinfo.email"
	scopeProfile       = "https://www.googleapis.com/auth/userinfo.profile"

	userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Identity is the verified Google account behind an exchanged code.
type Identity struct {
	Email string
	Name  string
}

// TokenStore persists per-user Google tokens. *catalog.Repo satisfies it.
type TokenStore interface {
	SaveGoogleToken(ctx context.Context, userID, accessToken, refreshToken string, expiry time.Time) error
	GetUserByID(ctx context.Context, id string) (*catalog.User, error)
}

type Client struct {
	config *oauth2.Config
	tokens TokenStore
}

func New(clientID, clientSecret, redirectURL string, tokens TokenStore) (*Client, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	return &Client{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{scopeEmail, scopeProfile, scopeGmailReadonly},
		},
		tokens: tokens,
	}, nil
}

// AuthCodeURL builds the consent URL. Offline access requests a refresh
// token so briefings keep working between visits.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the callback code for tokens and resolves who they belong to.
func (c *Client) Exchange(ctx context.Context, code string) (*Identity, *oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	identity, err := c.fetchIdentity(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return identity, token, nil
}

func (c *Client) fetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	resp, err := c.config.Client(ctx, token).Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, fmt.Errorf("google userinfo status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode google userinfo: %w", err)
	}
	if payload.Email == "" {
		return nil, errors.New("google userinfo missing email")
	}
	return &Identity{Email: payload.Email, Name: payload.Name}, nil
}

// SaveToken stores the token on the user row.
func (c *Client) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	return c.tokens.SaveGoogleToken(ctx, userID, token.AccessToken, token.RefreshToken, token.Expiry)
}

// HTTPClient returns an authorized client for the user, refreshing the stored
// token when it has expired and persisting the rotated credentials.
func (c *Client) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	user, err := c.tokens.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.GoogleAccessToken == "" {
		return nil, fmt.Errorf("user %s has no linked google account", userID)
	}

	stored := &oauth2.Token{
		AccessToken:  user.GoogleAccessToken,
		RefreshToken: user.GoogleRefreshToken,
	}
	if user.GoogleTokenExpiry != nil {
		stored.Expiry = *user.GoogleTokenExpiry
	}

	source := c.config.TokenSource(ctx, stored)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("google token refresh failed: %w", err)
	}
	if fresh.AccessToken != stored.AccessToken {
		if err := c.tokens.SaveGoogleToken(ctx, userID, fresh.AccessToken, fresh.RefreshToken, fresh.Expiry); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(fresh)), nil
}
