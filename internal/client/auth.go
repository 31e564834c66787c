package client

import (
	"context"
	"net/http"

	"github.com/eventify/ticketing/internal/model"
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. Wrong credentials are
// ErrUnauthorized.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	res, err := getItem[model.AuthResult](ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}
	if res.Token == "" || res.ID == 0 {
		return nil, malformed("login reply without token or user id")
	}
	return &Session{
		UserID:  res.ID,
		Name:    res.Name,
		Email:   res.Email,
		Role:    res.Role,
		Token:   res.Token,
		Expires: res.Expires,
	}, nil
}

// Register creates a USER account and returns the server's confirmation.
// A taken email is ErrConflict.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	return getMessage(ctx, c, request{
		method: http.MethodPost,
		path:   "/auth/signup",
		body:   credentials{Name: name, Email: email, Password: password},
	})
}

// Me returns the account behind the session.
func (c *Client) Me(ctx context.Context, sess *Session) (model.User, error) {
	if err := authorized(sess); err != nil {
		return model.User{}, err
	}
	return getItem[model.User](ctx, c, request{method: http.MethodGet, path: "/auth/me", sess: sess})
}
