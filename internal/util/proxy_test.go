package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "127.0.0.1, .internal,localhost:8000")

	tests := []struct {
		url  string
		want string
	}{
		{"http://backend.example.com/api/verify", "http://proxy:3128"},
		{"https://api.openai.com/v1/chat", "http://secure-proxy:3128"},
		{"http://127.0.0.1:8000/api/verify", ""},
		{"http://nli.internal/api/chat", ""},
		{"http://localhost:8000/api/chat", ""},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodPost, tt.url, nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.url, err)
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s: expected direct connection, got %s", tt.url, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want {
			t.Errorf("%s: expected %s, got %v", tt.url, tt.want, got)
		}
	}
}
