package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

type stubSessionService struct {
	loginFn     func(ctx context.Context, jar ports.SessionCookie, identifier, password string) (*domain.NormalSession, error)
	refreshFn   func(ctx context.Context, jar ports.SessionCookie) (domain.SessionClaims, error)
	becomeFn    func(ctx context.Context, jar ports.SessionCookie, targetID string) (*domain.ImpersonationSession, error)
	restoreFn   func(ctx context.Context, jar ports.SessionCookie) (*domain.NormalSession, error)
	verifyFn    func(ctx context.Context, jar ports.SessionCookie) domain.SessionClaims
	logoutCalls int
}

func (s *stubSessionService) Login(ctx context.Context, jar ports.SessionCookie, identifier, password string) (*domain.NormalSession, error) {
	return s.loginFn(ctx, jar, identifier, password)
}

func (s *stubSessionService) Logout(_ context.Context, jar ports.SessionCookie) {
	s.logoutCalls++
	jar.Clear()
}

func (s *stubSessionService) RefreshSession(ctx context.Context, jar ports.SessionCookie) (domain.SessionClaims, error) {
	return s.refreshFn(ctx, jar)
}

func (s *stubSessionService) BecomeUser(ctx context.Context, jar ports.SessionCookie, targetID string) (*domain.ImpersonationSession, error) {
	return s.becomeFn(ctx, jar, targetID)
}

func (s *stubSessionService) RestoreAdminSession(ctx context.Context, jar ports.SessionCookie) (*domain.NormalSession, error) {
	return s.restoreFn(ctx, jar)
}

func (s *stubSessionService) IsTemporaryUserSession(ctx context.Context, jar ports.SessionCookie) bool {
	return domain.IsTemporary(s.VerifySession(ctx, jar))
}

func (s *stubSessionService) VerifySession(ctx context.Context, jar ports.SessionCookie) domain.SessionClaims {
	if s.verifyFn == nil {
		return nil
	}
	return s.verifyFn(ctx, jar)
}

func (s *stubSessionService) VerifyAdminSession(ctx context.Context, jar ports.SessionCookie) domain.SessionClaims {
	claims := s.VerifySession(ctx, jar)
	if !domain.IsAdminSession(claims) {
		return nil
	}
	return claims
}

var testCookies = CookieOptions{Name: "AUTH_TOKEN"}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func nopLog() zerolog.Logger { return zerolog.Nop() }

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
