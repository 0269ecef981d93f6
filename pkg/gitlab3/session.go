package gitlab3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Login authenticates against /session with a username or email address
// and a password. On success the client adopts the returned private token
// (the session cookie is kept as well) and Login returns true.
//
// Bad credentials are an expected outcome: Login then returns false with a
// nil error. Errors are reserved for transport and server failures.
// Login is unnecessary when the client was created with a token.
func (c *Client) Login(ctx context.Context, loginOrEmail, password string) (bool, error) {
	body := map[string]string{"password": password}
	if strings.Contains(loginOrEmail, "@") {
		body["email"] = loginOrEmail
	} else {
		body["login"] = loginOrEmail
	}

	var session struct {
		ID           int    `json:"id"`
		Username     string `json:"username"`
		PrivateToken string `json:"private_token"`
	}
	err := c.Do(ctx, http.MethodPost, "/session", nil, body, &session, NoSudo())
	if err != nil {
		if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrAuthorization) {
			c.logger.Warn().Str("login", loginOrEmail).Msg("GitLab: Login rejected")
			return false, nil
		}
		return false, fmt.Errorf("login failed: %w", err)
	}

	if session.PrivateToken != "" {
		c.SetToken(session.PrivateToken)
	}

	c.logger.Info().
		Str("username", session.Username).
		Int("user_id", session.ID).
		Msg("GitLab: Logged in")

	return true, nil
}
