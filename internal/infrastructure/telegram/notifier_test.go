package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotifyPostsForm(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifierWithURL(srv.URL, "abc", "42")
	if err := n.Notify(context.Background(), "Mint returned nothing for 3 cycles"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if gotPath != "/botabc/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotChat != "42" || gotText != "Mint returned nothing for 3 cycles" {
		t.Fatalf("unexpected form: chat=%q text=%q", gotChat, gotText)
	}
}

func TestNotifyErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "42").Notify(context.Background(), "x"); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if err := NewNotifierWithURL(srv.URL, "bad", "42").Notify(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestNotifyTransportErrorHidesToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	apiURL := srv.URL
	srv.Close()

	const token = "123456:secret-bot-token"
	err := NewNotifierWithURL(apiURL, token, "42").Notify(context.Background(), "x")
	if err == nil {
		t.Fatal("expected transport error for closed server")
	}
	if strings.Contains(err.Error(), token) || strings.Contains(err.Error(), "/bot") {
		t.Fatalf("error leaks request URL: %v", err)
	}
}
