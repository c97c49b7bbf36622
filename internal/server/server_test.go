package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// newExchangeServer fakes the provider's token endpoint.
func newExchangeServer(t *testing.T, accessToken string) (*httptest.Server, *oauth2.Config) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)

	config := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/authorize",
			TokenURL: srv.URL + "/token",
		},
		RedirectURL: "http://localhost:3000/callback",
	}

	return srv, config
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for POST, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		router := NewBasicRouter()
		var order []string

		mk := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router.Use(mk("first"), mk("second"))
		router.Handle("GET", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Valid Callback Delivers Token", func(t *testing.T) {
		_, config := newExchangeServer(t, "granted-token")
		handler := NewOAuthHandler(config, "state123")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/callback?state=state123&code=abc", nil)
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "granted-token" {
			t.Errorf("expected granted-token, got %s", result.Token.AccessToken)
		}
	})

	t.Run("State Mismatch Rejected", func(t *testing.T) {
		_, config := newExchangeServer(t, "granted-token")
		handler := NewOAuthHandler(config, "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=wrong&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result for state mismatch")
		}
	})

	t.Run("Provider Denial Reported", func(t *testing.T) {
		_, config := newExchangeServer(t, "granted-token")
		handler := NewOAuthHandler(config, "state123")

		rec := httptest.NewRecorder()
		q := url.Values{"state": {"state123"}, "error": {"access_denied"}, "error_description": {"User denied"}}
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?"+q.Encode(), nil))

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		_, config := newExchangeServer(t, "granted-token")
		handler := NewOAuthHandler(config, "state123")

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/callback?state=state123&code=abc", nil))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=state123&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
	})
}

func TestCallbackFlow(t *testing.T) {
	freePort := func(t *testing.T) string {
		t.Helper()
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to find free port: %v", err)
		}
		addr := l.Addr().String()
		l.Close()
		return addr
	}

	t.Run("Completes On Callback", func(t *testing.T) {
		_, config := newExchangeServer(t, "flow-token")
		addr := freePort(t)

		flow := NewCallbackFlow(config, addr, nil)
		flow.SetTimeout(5 * time.Second)
		flow.openBrowser = func(authURL string) error {
			go func() {
				// a real browser hits the redirect after the user approves
				for i := 0; i < 50; i++ {
					resp, err := http.Get(fmt.Sprintf("http://%s/callback?state=s1&code=abc", addr))
					if err == nil {
						resp.Body.Close()
						return
					}
					time.Sleep(20 * time.Millisecond)
				}
			}()
			return nil
		}

		token, err := flow.Run(context.Background(), "http://example.test/authorize", "s1")
		if err != nil {
			t.Fatalf("flow failed: %v", err)
		}
		if token.AccessToken != "flow-token" {
			t.Errorf("expected flow-token, got %s", token.AccessToken)
		}
	})

	t.Run("Times Out Without Callback", func(t *testing.T) {
		_, config := newExchangeServer(t, "flow-token")

		flow := NewCallbackFlow(config, freePort(t), nil)
		flow.SetTimeout(50 * time.Millisecond)
		flow.openBrowser = func(string) error { return nil }

		if _, err := flow.Run(context.Background(), "http://example.test/authorize", "s1"); err == nil {
			t.Error("expected timeout error")
		}
	})

	t.Run("Cancelled Context Stops Flow", func(t *testing.T) {
		_, config := newExchangeServer(t, "flow-token")

		flow := NewCallbackFlow(config, freePort(t), nil)
		flow.openBrowser = func(string) error { return nil }

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := flow.Run(ctx, "http://example.test/authorize", "s1"); err == nil {
			t.Error("expected context error")
		}
	})
}
