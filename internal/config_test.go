package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgconfig "github.com/starford/launchpad/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsBasic(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to basic: %v", err)
	}
	if cfg.Mode != AuthModeBasic {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeBasic)
	}
	if cfg.Password != DefaultAdminPassword {
		t.Errorf("password = %q, want default", cfg.Password)
	}
}

func TestAuthConfig_BasicKeepsPassword(t *testing.T) {
	cfg := AuthConfig{Mode: "basic", Password: "s3cret"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if !cfg.AuthEnabled() || cfg.Password != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.App.HTTP.Address() != ":3000" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestFullConfig_StorageRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.CatalogPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty catalog path should fail")
	}
}

func TestFullConfig_NegativeThrottle(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Events.Throttle = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative throttle should fail")
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("LAUNCHPAD_TEST_PASSWORD", "from-env")
	yaml := `app:
  log_level: debug
  http:
    port: 9090
storage:
  catalog_path: /srv/apps.json
auth:
  password: ${LAUNCHPAD_TEST_PASSWORD}
events:
  throttle: 2s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Storage.CatalogPath != "/srv/apps.json" || cfg.Storage.UploadsDir != "./public/uploads" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Auth.Password != "from-env" || cfg.Auth.Mode != AuthModeBasic {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Events.Throttle != 2*time.Second || !cfg.Events.Watch {
		t.Errorf("events = %+v", cfg.Events)
	}
}
