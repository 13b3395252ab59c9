// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// --- VerifyBearer ---

func TestVerifyBearer(t *testing.T) {
	const token = "workbench-token-for-testing"

	request := func(header string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return req
	}

	t.Run("valid", func(t *testing.T) {
		if err := VerifyBearer(token, request("Bearer "+token)); err != nil {
			t.Errorf("VerifyBearer() = %v, want nil", err)
		}
	})

	t.Run("wrong_token", func(t *testing.T) {
		err := VerifyBearer(token, request("Bearer wrong"))
		if err == nil {
			t.Fatal("VerifyBearer() = nil, want error")
		}
		if !strings.Contains(err.Error(), "token mismatch") {
			t.Errorf("error = %q, want 'token mismatch'", err)
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		err := VerifyBearer(token, request(""))
		if err == nil {
			t.Fatal("VerifyBearer() = nil, want error")
		}
		if !strings.Contains(err.Error(), "missing Authorization") {
			t.Errorf("error = %q, want 'missing Authorization'", err)
		}
	})

	t.Run("not_bearer", func(t *testing.T) {
		err := VerifyBearer(token, request("Basic dXNlcjpwYXNz"))
		if err == nil {
			t.Fatal("VerifyBearer() = nil, want error")
		}
		if !strings.Contains(err.Error(), "not a bearer token") {
			t.Errorf("error = %q, want 'not a bearer token'", err)
		}
	})

	t.Run("no_token_configured", func(t *testing.T) {
		err := VerifyBearer("", request("Bearer "+token))
		if err == nil {
			t.Fatal("VerifyBearer() = nil, want error")
		}
		if !strings.Contains(err.Error(), "no token configured") {
			t.Errorf("error = %q, want 'no token configured'", err)
		}
	})
}

func TestRequireBearer(t *testing.T) {
	inner := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	t.Run("empty_token_passthrough", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		RequireBearer("", inner).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		if recorder.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", recorder.Code)
		}
	})

	t.Run("rejects_without_token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		RequireBearer("secret", inner).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		if recorder.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("accepts_with_token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer secret")
		RequireBearer("secret", inner).ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", recorder.Code)
		}
	})
}

// --- HTTPServer lifecycle ---

func TestHTTPServerLifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
		fmt.Fprintf(writer, "ok")
	})

	server := NewHTTPServer(HTTPServerConfig{
		Address:         "127.0.0.1:0", // OS-assigned port
		Handler:         handler,
		ShutdownTimeout: 2 * time.Second,
		Logger:          logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	select {
	case <-server.Ready():
	case <-ctx.Done():
		t.Fatal("server never became ready")
	}

	response, err := http.Get("http://" + server.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	if response.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("response = %d %q, want 200 ok", response.StatusCode, body)
	}

	cancel()
	select {
	case err := <-serveDone:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHTTPServerBadAddress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewHTTPServer(HTTPServerConfig{
		Address: "256.256.256.256:99999",
		Handler: http.NotFoundHandler(),
		Logger:  logger,
	})
	if err := server.Serve(context.Background()); err == nil {
		t.Fatal("Serve bound an impossible address")
	}
}
