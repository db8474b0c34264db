package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": testSecret,
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Port != "8080" || cfg.Mongo.Database != "dice" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != time.Hour || cfg.Auth.LoginWindow != 15*time.Minute || cfg.Auth.LoginMaxAttempts != 5 {
		t.Errorf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Mongo.Timeout != 5*time.Second {
		t.Errorf("want 5s mongo timeout, got %v", cfg.Mongo.Timeout)
	}
	if cfg.Redis.Addr != "" || cfg.Games.SoftDelete || cfg.Audit.Workers != 4 {
		t.Errorf("unexpected optional defaults: %+v %+v %+v", cfg.Redis, cfg.Games, cfg.Audit)
	}
	if !cfg.Development() {
		t.Error("ENV defaults to development")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       testSecret,
		"JWT_TTL":          "30m",
		"ENV":              "production",
		"REDIS_ADDR":       "redis:6379",
		"GAME_SOFT_DELETE": "true",
		"ADMIN_USERNAME":   "root",
		"ADMIN_PASSWORD":   "s3cret!",
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute || cfg.Development() || cfg.Redis.Addr != "redis:6379" || !cfg.Games.SoftDelete {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Admin.Username != "root" {
		t.Errorf("want admin root, got %q", cfg.Admin.Username)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 bytes"},
		{"bad ttl", map[string]string{"JWT_SECRET": testSecret, "JWT_TTL": "-1m"}, "JWT_TTL"},
		{"unparsable ttl", map[string]string{"JWT_SECRET": testSecret, "JWT_TTL": "soon"}, "TokenTTL"},
		{"no workers", map[string]string{"JWT_SECRET": testSecret, "AUDIT_WORKERS": "0"}, "AUDIT_WORKERS"},
		{"half admin", map[string]string{"JWT_SECRET": testSecret, "ADMIN_USERNAME": "root"}, "ADMIN_PASSWORD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tc.env))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
