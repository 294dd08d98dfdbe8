package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/cinematch/internal/shared"
	tu "github.com/desertthunder/cinematch/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if srv.limiter != nil {
				t.Error("expected no rate limit by default")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Sends Query And Default Headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if r.URL.Query().Get("q") != "a b" {
					t.Errorf("expected query 'a b', got %q", r.URL.Query().Get("q"))
				}
				if r.Header.Get("Accept") != "application/json" {
					t.Errorf("expected Accept header, got %q", r.Header.Get("Accept"))
				}
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("expected bearer header, got %q", r.Header.Get("Authorization"))
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			srv.SetHeader("Authorization", "Bearer tok")
			resp, err := srv.Get(context.Background(), "/test", url.Values{"q": {"a b"}})

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}

			var out map[string]string
			if err := resp.Decode(&out); err != nil || out["status"] != "success" {
				t.Errorf("unexpected decode result %v, %v", out, err)
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test", nil)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}

			var out map[string]any
			if err := resp.Decode(&out); err == nil {
				t.Error("expected decode error for non-JSON body")
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid", nil)

			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test", nil)

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test", nil)

			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil)
			srv.SetRateLimit(1, 1)
			if _, err := srv.Get(ctx, "/test", nil); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("SetRateLimit", func(t *testing.T) {
		srv := NewAPIService("http://example.com", nil)

		srv.SetRateLimit(5, 0)
		if srv.limiter == nil || srv.limiter.Burst() != 1 {
			t.Fatal("expected limiter with burst 1")
		}

		srv.SetRateLimit(0, 3)
		if srv.limiter != nil {
			t.Error("non-positive rate should disable limiting")
		}
	})
}
