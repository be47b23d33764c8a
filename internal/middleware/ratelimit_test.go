package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/invitame/wedding-invitation-service/internal/config"
)

func rateCtx(t *testing.T) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/invitacion/ana-y-luis", nil)
    req.RemoteAddr = "203.0.113.9:4321"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/invitacion/:slug")
    return c
}

func TestRateKeyStrategies(t *testing.T) {
    c := rateCtx(t)

    key := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c)
    assert.Equal(t, "rl:ip:203.0.113.9", key)

    // the route part is the registered pattern, so all slugs of one
    // caller share a bucket per endpoint
    key = rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c)
    assert.Equal(t, "rl:ip:203.0.113.9:route:GET /invitacion/:slug", key)

    // unknown strategies fall back to ip_route
    key = rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "bogus"}, c)
    assert.Equal(t, "rl:ip:203.0.113.9:route:GET /invitacion/:slug", key)
}

func TestNewTokenBucketDisabledPassesThrough(t *testing.T) {
    mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
    called := false
    h := mw(func(c echo.Context) error { called = true; return nil })
    assert.NoError(t, h(rateCtx(t)))
    assert.True(t, called)
}
