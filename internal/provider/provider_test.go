package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

type stubRouter struct{ name string }

func (s stubRouter) Name() string { return s.name }
func (s stubRouter) Route(context.Context, model.Coordinate, model.Coordinate) (model.Geometry, error) {
	return nil, nil
}

func TestRegistry_FallbackToDefault(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	Register(DefaultName, func(Options) (Router, error) { return stubRouter{name: DefaultName}, nil })
	Register("stub-other", func(Options) (Router, error) { return stubRouter{name: "stub-other"}, nil })

	r, err := New("totally-unknown", Options{Logger: logger})
	if err != nil || r.Name() != DefaultName {
		t.Fatalf("expected fallback to %s, got r=%v err=%v", DefaultName, r, err)
	}
	r, err = New("stub-other", Options{Logger: logger})
	if err != nil || r.Name() != "stub-other" {
		t.Fatalf("r=%v err=%v", r, err)
	}
	names := Names()
	if len(names) < 2 {
		t.Fatalf("names=%v", names)
	}
}

func TestNewLimiter(t *testing.T) {
	if NewLimiter(0, 5) != nil {
		t.Fatal("rps 0 should disable limiting")
	}
	l := NewLimiter(2, 0)
	if l == nil || l.Burst() != 1 || l.Limit() != rate.Limit(2) {
		t.Fatalf("limiter=%v", l)
	}
}

func TestDoJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	err := DoJSON(context.Background(), Options{HTTP: srv.Client()}, "test", req, &out)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("err=%v want ErrProvider", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusTooManyRequests {
		t.Fatalf("err=%v want StatusError 429", err)
	}
}

func TestDoJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	if err := DoJSON(context.Background(), Options{HTTP: srv.Client()}, "test", req, &out); !errors.Is(err, ErrProvider) {
		t.Fatalf("err=%v want ErrProvider", err)
	}
}

func TestDoJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	if err := DoJSON(ctx, Options{HTTP: srv.Client()}, "test", req, &out); !errors.Is(err, ErrProvider) {
		t.Fatalf("err=%v want ErrProvider", err)
	}
}

func TestDoJSON_LimiterCanceled(t *testing.T) {
	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	lim.Allow() // drain the single token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	var out map[string]any
	if err := DoJSON(ctx, Options{HTTP: http.DefaultClient, Limiter: lim}, "test", req, &out); !errors.Is(err, ErrProvider) {
		t.Fatalf("err=%v want ErrProvider", err)
	}
}
