package client

import (
	"net/http"
	"net/url"
)

// DefaultCookieName is the cookie Django stores its CSRF token in
const DefaultCookieName = "csrftoken"

// TokenSource supplies the CSRF token sent with mutating requests
type TokenSource interface {
	Token(u *url.URL) (string, error)
}

// StaticToken is a fixed token from configuration
type StaticToken string

// Token returns the configured token
func (t StaticToken) Token(*url.URL) (string, error) {
	if t == "" {
		return "", ErrMissingToken
	}
	return string(t), nil
}

// CookieToken reads the token from a cookie in a jar
type CookieToken struct {
	Jar  http.CookieJar
	Name string
}

// Token returns the cookie value for u
func (t *CookieToken) Token(u *url.URL) (string, error) {
	if t.Jar == nil {
		return "", ErrMissingToken
	}
	name := t.Name
	if name == "" {
		name = DefaultCookieName
	}
	for _, c := range t.Jar.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrMissingToken
}
