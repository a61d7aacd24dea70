package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/authcookie"
)

func memoryConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{Auth: AuthConfig{Storage: TokenStorageTypeMemory}}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := memoryConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Server.Host != DefaultConfigServerHost || cfg.Server.Port != DefaultConfigServerPort {
		t.Errorf("server = %s:%d, want defaults", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Auth.RefreshMethod != http.MethodGet {
		t.Errorf("RefreshMethod = %q, want GET", cfg.Auth.RefreshMethod)
	}
	if cfg.Cookie.Name != authcookie.DefaultName {
		t.Errorf("Cookie.Name = %q, want %q", cfg.Cookie.Name, authcookie.DefaultName)
	}
	if cfg.Auth.CookieSyncURL != "" {
		t.Errorf("CookieSyncURL = %q, want empty without public_url", cfg.Auth.CookieSyncURL)
	}
}

func TestApplyDefaults_StoragePaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	file := &Config{Auth: AuthConfig{Storage: TokenStorageTypeFile}}
	if err := file.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}
	if !strings.HasSuffix(file.Auth.File, filepath.Join("storefront", "AT")) {
		t.Errorf("Auth.File = %q, want .../storefront/AT", file.Auth.File)
	}

	sqlite := &Config{Auth: AuthConfig{Storage: TokenStorageTypeSQLite}}
	if err := sqlite.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}
	if filepath.Base(sqlite.Auth.SQLitePath) != "session.db" {
		t.Errorf("Auth.SQLitePath = %q, want session.db", sqlite.Auth.SQLitePath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad environment", func(c *Config) { c.Environment = "staging" }},
		{"bad exporter", func(c *Config) { c.Telemetry.Exporter = "zipkin" }},
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }},
		{"bad header scheme", func(c *Config) { c.Auth.HeaderScheme = "basic" }},
		{"bad refresh method", func(c *Config) { c.Auth.RefreshMethod = "PATCH" }},
		{"env storage without key", func(c *Config) { c.Auth.Storage = TokenStorageTypeEnv }},
		{"keyring without user", func(c *Config) { c.Auth.Storage = TokenStorageTypeKeyring }},
		{"empty cookie name", func(c *Config) { c.Cookie.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig(t)
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestAPIBaseURL(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.API.DevBaseURL = "http://localhost:8080"

	if got := cfg.APIBaseURL(); got != api.DefaultBaseURL {
		t.Errorf("production APIBaseURL() = %q, want %q", got, api.DefaultBaseURL)
	}

	cfg.Environment = EnvironmentDevelopment
	if got := cfg.APIBaseURL(); got != "http://localhost:8080" {
		t.Errorf("development APIBaseURL() = %q, want dev URL", got)
	}
}

func TestCookieCodec(t *testing.T) {
	insecure := false
	tests := []struct {
		name   string
		env    Environment
		secure *bool
		want   bool
	}{
		{"production", EnvironmentProduction, nil, true},
		{"development", EnvironmentDevelopment, nil, false},
		{"override", EnvironmentProduction, &insecure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := CookieConfig{Name: "tk", MaxAge: time.Minute, Secure: tt.secure}
			if got := cookie.Codec(tt.env).Secure(); got != tt.want {
				t.Errorf("Secure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTokenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		auth AuthConfig
	}{
		{"memory", AuthConfig{Storage: TokenStorageTypeMemory}},
		{"file", AuthConfig{Storage: TokenStorageTypeFile, File: filepath.Join(dir, "AT")}},
		{"sqlite", AuthConfig{Storage: TokenStorageTypeSQLite, SQLitePath: filepath.Join(dir, "session.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closer, err := tt.auth.NewTokenStore()
			if err != nil {
				t.Fatalf("NewTokenStore() error = %v", err)
			}
			defer func() { _ = closer.Close() }()

			if err := store.Write(ctx, "token-1"); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := store.Read(ctx)
			if err != nil || got != "token-1" {
				t.Errorf("Read() = %q, %v, want token-1", got, err)
			}
		})
	}

	if _, _, err := (&AuthConfig{Storage: "clipboard"}).NewTokenStore(); err == nil {
		t.Error("NewTokenStore(clipboard) error = nil, want error")
	}
}

func TestNewSession(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Auth.CookieSyncURL = "http://127.0.0.1:3000/auth/cookie"

	sess, closer, err := NewSession(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer func() { _ = closer.Close() }()

	if got := sess.Client().BaseURL(); got != api.DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, api.DefaultBaseURL)
	}
	if got := sess.AccessToken(context.Background()); got != "" {
		t.Errorf("AccessToken() = %q, want empty", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.LogFormat = "xml"

	if _, err := New(cfg); err == nil {
		t.Error("New() error = nil, want invalid configuration")
	}
}

func TestApp_StartAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	cfg := memoryConfig(t)
	cfg.Server.Port = uint16(port)

	application, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Start(ctx) }()

	url := "http://" + listener.Addr().String() + "/healthz"
	var resp *http.Response
	for range 50 {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("health check failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
