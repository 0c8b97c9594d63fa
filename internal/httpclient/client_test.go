package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	c := New(Options{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 10, c.maxRedirects)
	assert.Equal(t, []string{"http", "https"}, c.allowedSchemes)
	assert.False(t, c.blockPrivateIP)
}

func TestValidateURL(t *testing.T) {
	open := New(Options{})
	guarded := New(Options{BlockPrivateIP: true})

	tests := []struct {
		name    string
		client  *Client
		url     string
		wantErr string
	}{
		{"https", guarded, "https://graphs.example.com/api", ""},
		{"file scheme", open, "file:///etc/passwd", "scheme"},
		{"credentials", open, "http://user:pw@example.com/", "credentials"},
		{"no host", open, "http:///graphs", "hostname"},
		{"localhost allowed when open", open, "http://localhost:8080/graphs", ""},
		{"localhost blocked", guarded, "http://localhost:8080/graphs", "localhost"},
		{"private ip blocked", guarded, "http://10.1.2.3/graphs", "private"},
		{"loopback v6 blocked", guarded, "http://[::1]/graphs", "private"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	for ip, want := range map[string]bool{
		"10.0.0.1":      true,
		"172.16.5.4":    true,
		"192.168.1.1":   true,
		"127.0.0.1":     true,
		"169.254.1.1":   true,
		"8.8.8.8":       false,
		"fd00::1":       true,
		"fe80::1":       true,
		"2606:4700::11": false,
	} {
		assert.Equal(t, want, isPrivateIP(net.ParseIP(ip)), ip)
	}
}

func TestDoSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "kgviz-test"})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "kgviz-test", got)
}

func TestGuardedClientRefusesLoopbackServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := New(Options{BlockPrivateIP: true})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = c.Do(req)
	assert.Error(t, err)
}

func TestWrapDoesNotBlock(t *testing.T) {
	c := Wrap(&http.Client{})
	_, err := c.ValidateURL("http://127.0.0.1:1/")
	assert.NoError(t, err)
}
