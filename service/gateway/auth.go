package gateway

import (
	"context"
	"net/http"
	"strings"

	usermodel "CityTalk/module/user/model"
	"CityTalk/tools/errs"
	"CityTalk/tools/security"
)

// Token sources at handshake time, in precedence order: the auth frame's
// payload, the "token" query parameter, the access_token cookie.
const (
	tokenQueryParam = "token"
	tokenCookieName = "access_token"
)

// Authenticator gates connection creation. Nothing downstream of it ever sees
// an unauthenticated connection.
type Authenticator struct {
	users    UserStore
	throttle *AuthThrottle
	jwtOpts  security.Options
}

func NewAuthenticator(users UserStore, throttle *AuthThrottle, jwtOpts security.Options) *Authenticator {
	return &Authenticator{users: users, throttle: throttle, jwtOpts: jwtOpts}
}

// ResolveToken applies the source precedence: first non-empty wins.
func ResolveToken(payloadToken string, r *http.Request) string {
	if tok := strings.TrimSpace(payloadToken); tok != "" {
		return tok
	}
	if tok := strings.TrimSpace(r.URL.Query().Get(tokenQueryParam)); tok != "" {
		return tok
	}
	if ck, err := r.Cookie(tokenCookieName); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}

// Authenticate verifies token for a handshake from addr. Throttling is
// evaluated first: a blocked address is rejected without looking at the
// token, valid or not. Any failure counts against the address; success
// clears its entry.
func (a *Authenticator) Authenticate(ctx context.Context, token, addr string) (*usermodel.UserProfile, error) {
	if !a.throttle.Allow(addr) {
		return nil, errs.ErrThrottled
	}

	profile, err := a.verify(ctx, token)
	if err != nil {
		a.throttle.Fail(addr)
		return nil, err
	}
	a.throttle.Reset(addr)
	return profile, nil
}

func (a *Authenticator) verify(ctx context.Context, token string) (*usermodel.UserProfile, error) {
	if token == "" {
		return nil, errs.ErrAuthentication.WithDetail("no token presented")
	}
	claims, err := security.Verify(a.jwtOpts, token)
	if err != nil {
		return nil, errs.ErrAuthentication.WithDetail(err.Error())
	}
	if claims.TokenType != security.TokenTypeAccess {
		// refresh or otherwise; valid signature is not enough
		return nil, errs.ErrAuthentication.WithDetail("token type is not access: " + claims.TokenType)
	}
	profile, err := a.users.GetProfile(ctx, claims.Subject)
	if err != nil {
		return nil, errs.ErrAuthentication.WithDetail("user lookup: " + err.Error())
	}
	if profile == nil {
		return nil, errs.ErrAuthentication.WithDetail("user no longer exists: " + claims.Subject)
	}
	return profile, nil
}
