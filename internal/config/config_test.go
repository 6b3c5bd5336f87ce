package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Engine:  EngineConfig{Driver: EngineOpenSearch, Addresses: []string{"http://localhost:9200"}},
		Catalog: CatalogConfig{Driver: CatalogRedis, Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Engine = EngineConfig{Driver: EngineMemory, FixturesPath: "testdata/works.json"}
	cfg.Catalog = CatalogConfig{Driver: CatalogNone}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory engine without catalog: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too big", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"opensearch without addresses", func(c *Config) { c.Engine.Addresses = nil }, "engine.addresses"},
		{"memory without fixtures", func(c *Config) { c.Engine.Driver = EngineMemory }, "engine.fixtures_path"},
		{"unknown engine", func(c *Config) { c.Engine.Driver = "solr" }, `engine.driver must be "opensearch" or "memory", got "solr"`},
		{"redis without addrs", func(c *Config) { c.Catalog.Addrs = nil }, "catalog.addrs"},
		{"unknown catalog", func(c *Config) { c.Catalog.Driver = "valkey" }, "catalog.driver"},
		{"negative revision", func(c *Config) { c.Search.ScriptRevision = -1 }, "search.script_revision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Engine.Driver != EngineOpenSearch {
		t.Errorf("expected engine driver %q, got %q", EngineOpenSearch, cfg.Engine.Driver)
	}
	if cfg.Engine.Index != "works" {
		t.Errorf("expected index works, got %q", cfg.Engine.Index)
	}
	if cfg.Engine.ReadinessTimeout != 30 {
		t.Errorf("expected engine ReadinessTimeout=30, got %d", cfg.Engine.ReadinessTimeout)
	}
	if cfg.Catalog.Driver != CatalogRedis {
		t.Errorf("expected catalog driver %q, got %q", CatalogRedis, cfg.Catalog.Driver)
	}
	if cfg.Catalog.KeyPrefix != "shelfdex:" {
		t.Errorf("expected KeyPrefix='shelfdex:', got %q", cfg.Catalog.KeyPrefix)
	}
	if cfg.Catalog.ReadinessTimeout != 10 {
		t.Errorf("expected catalog ReadinessTimeout=10, got %d", cfg.Catalog.ReadinessTimeout)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Engine:  EngineConfig{Driver: EngineMemory, Index: "works-v2", ReadinessTimeout: 5},
		Catalog: CatalogConfig{Driver: CatalogNone, KeyPrefix: "tenant:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Engine.Driver != EngineMemory || cfg.Engine.Index != "works-v2" || cfg.Engine.ReadinessTimeout != 5 {
		t.Errorf("engine overridden: %+v", cfg.Engine)
	}
	if cfg.Catalog.Driver != CatalogNone || cfg.Catalog.KeyPrefix != "tenant:" {
		t.Errorf("catalog overridden: %+v", cfg.Catalog)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SHELFDEX_TEST_PORT", "9090")
	t.Setenv("SHELFDEX_TEST_PASSWORD", "hunter2")

	cfg, err := Parse([]byte(`
http:
  port: ${SHELFDEX_TEST_PORT}
engine:
  driver: opensearch
  addresses: ["${SHELFDEX_TEST_ENGINE:-http://localhost:9200}"]
  password: ${SHELFDEX_TEST_PASSWORD}
catalog:
  driver: none
search:
  script_revision: 2
  deterministic: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port: got %d", cfg.HTTP.Port)
	}
	if len(cfg.Engine.Addresses) != 1 || cfg.Engine.Addresses[0] != "http://localhost:9200" {
		t.Errorf("addresses: got %v", cfg.Engine.Addresses)
	}
	if cfg.Engine.Password != "hunter2" {
		t.Errorf("password: got %q", cfg.Engine.Password)
	}
	if cfg.Search.ScriptRevision != 2 || !cfg.Search.Deterministic {
		t.Errorf("search: got %+v", cfg.Search)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected a validation error for missing engine addresses")
	}
}

func TestLoad_TestEnv(t *testing.T) {
	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}
	if cfg.Engine.Driver != EngineMemory || cfg.Catalog.Driver != CatalogNone {
		t.Errorf("test config should run without backends: %+v %+v", cfg.Engine, cfg.Catalog)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("default env: got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("env: got %q", got)
	}
}
