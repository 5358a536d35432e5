package client

import (
	"context"
	"net/http"
	"net/url"
)

// User is the signed-in account
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"`
}

// Session is the result of a successful login
type Session struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	User      User   `json:"user"`
}

// Auth handles sign-in against the selected backend
type Auth struct {
	c *Client
}

// Auth returns the authentication API
func (c *Client) Auth() *Auth { return &Auth{c: c} }

// hostedUser is the account shape of the hosted auth service
type hostedUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName *string `json:"full_name"`
		Role     string  `json:"role"`
	} `json:"user_metadata"`
}

func (u hostedUser) user() User {
	return User{ID: u.ID, Email: u.Email, FullName: u.UserMetadata.FullName, Role: u.UserMetadata.Role}
}

// Login signs in with email and password and keeps the session token for
// later requests
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	creds := map[string]string{"email": email, "password": password}

	var session Session
	if a.c.cfg.Local {
		if err := a.c.do(ctx, request{method: http.MethodPost, path: a.c.path("auth", "login"), body: creds}, &session); err != nil {
			return nil, err
		}
	} else {
		var resp struct {
			AccessToken string     `json:"access_token"`
			ExpiresIn   int        `json:"expires_in"`
			User        hostedUser `json:"user"`
		}
		q := url.Values{"grant_type": {"password"}}
		if err := a.c.do(ctx, request{method: http.MethodPost, path: a.c.path("auth", "token"), query: q, body: creds}, &resp); err != nil {
			return nil, err
		}
		session = Session{Token: resp.AccessToken, ExpiresIn: resp.ExpiresIn, User: resp.User.user()}
	}

	a.c.SetToken(session.Token)
	return &session, nil
}

// Me returns the account behind the current token
func (a *Auth) Me(ctx context.Context) (*User, error) {
	if a.c.cfg.Local {
		var resp struct {
			User User `json:"user"`
		}
		if err := a.c.do(ctx, request{method: http.MethodGet, path: a.c.path("auth", "me")}, &resp); err != nil {
			return nil, err
		}
		return &resp.User, nil
	}

	var u hostedUser
	if err := a.c.do(ctx, request{method: http.MethodGet, path: a.c.path("auth", "user")}, &u); err != nil {
		return nil, err
	}
	user := u.user()
	return &user, nil
}

// Logout forgets the session token
func (a *Auth) Logout() {
	a.c.SetToken("")
}
