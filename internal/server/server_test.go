package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/naestech/newNoise/internal/shared"
	"golang.org/x/oauth2"
)

type stubExchanger struct {
	code string
	err  error
}

func (s *stubExchanger) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	s.code = code
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh"}, nil
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges the code", func(t *testing.T) {
		exchanger := &stubExchanger{}
		handler := NewOAuthHandler(exchanger, "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if exchanger.code != "abc" {
			t.Errorf("expected code abc, got %q", exchanger.code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access-abc" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})

	t.Run("rejects a wrong state", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state error")
		}
	})

	t.Run("reports a denied consent", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "s")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil))

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{err: shared.ErrAuthFailed}, "s")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=abc", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("second callback is rejected", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "s")

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=a", nil))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=b", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
	})
}

func TestCallbackMux(t *testing.T) {
	t.Run("callback answers GET only", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "s")
		mux := NewCallbackMux()
		mux.Mount(handler)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback?state=s&code=xyz", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("expected Allow: GET, got %q", rec.Header().Get("Allow"))
		}

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=xyz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Token.AccessToken != "access-xyz" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})

	t.Run("unknown path names the callback route", func(t *testing.T) {
		mux := NewCallbackMux()
		mux.Mount(NewOAuthHandler(&stubExchanger{}, "s"))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "/callback") {
			t.Errorf("expected hint naming /callback, got %q", rec.Body.String())
		}
		if got := mux.Routes(); len(got) != 1 || got[0] != "/callback" {
			t.Errorf("unexpected routes %v", got)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		mux := NewCallbackMux()
		mux.Use(tag("first"), tag("second"))
		mux.Mount(NewOAuthHandler(&stubExchanger{}, "s"))
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=a", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})
}

func TestAwaitToken(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("receives the callback", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "s")

		done := make(chan *OAuthResult, 1)
		go func() {
			result, _ := AwaitToken(context.Background(), "127.0.0.1:0", handler, 5*time.Second, logger)
			done <- result
		}()

		// AwaitToken binds its own port, so drive the handler directly.
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=xyz", nil))

		select {
		case result := <-done:
			if result == nil || result.Token.AccessToken != "access-xyz" {
				t.Errorf("unexpected result %+v", result)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("AwaitToken did not return")
		}
	})

	t.Run("times out", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "s")

		_, err := AwaitToken(context.Background(), "127.0.0.1:0", handler, 20*time.Millisecond, logger)
		if err == nil {
			t.Error("expected timeout error")
		}
	})

	t.Run("serves over HTTP", func(t *testing.T) {
		handler := NewOAuthHandler(&stubExchanger{}, "s")
		mux := NewCallbackMux()
		mux.Mount(handler)

		srv, err := NewCallbackServer("127.0.0.1:0", mux, logger)
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		srv.Start()
		defer srv.Shutdown(context.Background())

		resp, err := http.Get("http://" + srv.Addr() + "/callback?state=s&code=live")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if result := <-handler.Result(); result.Token.AccessToken != "access-live" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})
}
