package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/festapp/identity/internal/core/ports"
)

// CookieOptions describes the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Jar binds the session cookie to the current request and response.
func (o CookieOptions) Jar(c echo.Context) ports.SessionCookie {
	return &cookieJar{c: c, opts: o}
}

type cookieJar struct {
	c    echo.Context
	opts CookieOptions

	// written shadows the request cookie once this request set or cleared it.
	written *string
}

func (j *cookieJar) Read() (string, bool) {
	if j.written != nil {
		return *j.written, *j.written != ""
	}
	ck, err := j.c.Cookie(j.opts.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (j *cookieJar) Write(token string, maxAge time.Duration) {
	j.c.SetCookie(j.cookie(token, int(maxAge/time.Second), time.Now().Add(maxAge)))
	j.written = &token
}

func (j *cookieJar) Clear() {
	// MaxAge < 0 is sent as Max-Age=0.
	j.c.SetCookie(j.cookie("", -1, time.Unix(0, 0)))
	empty := ""
	j.written = &empty
}

func (j *cookieJar) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     j.opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   j.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
