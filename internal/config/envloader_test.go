package config

import (
	"testing"
)

type envTestConfig struct {
	Name   string   `env:"EOS_TEST_NAME"`
	Count  int32    `env:"EOS_TEST_COUNT"`
	Flag   bool     `env:"EOS_TEST_FLAG"`
	Size   ByteSize `env:"EOS_TEST_SIZE"`
	Tags   []string `env:"EOS_TEST_TAGS"`
	Nested struct {
		Inner string `env:"EOS_TEST_INNER"`
	}
	untagged string
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EOS_TEST_NAME", "demo")
	t.Setenv("EOS_TEST_COUNT", "12")
	t.Setenv("EOS_TEST_FLAG", "true")
	t.Setenv("EOS_TEST_SIZE", "2KiB")
	t.Setenv("EOS_TEST_TAGS", "a, b ,c")
	t.Setenv("EOS_TEST_INNER", "deep")

	cfg := &envTestConfig{untagged: "kept"}
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Name != "demo" {
		t.Errorf("Name = %q, want %q", cfg.Name, "demo")
	}
	if cfg.Count != 12 {
		t.Errorf("Count = %d, want 12", cfg.Count)
	}
	if !cfg.Flag {
		t.Error("Flag = false, want true")
	}
	if cfg.Size != 2048 {
		t.Errorf("Size = %d, want 2048", cfg.Size)
	}
	if len(cfg.Tags) != 3 || cfg.Tags[0] != "a" || cfg.Tags[1] != "b" || cfg.Tags[2] != "c" {
		t.Errorf("Tags = %v, want [a b c]", cfg.Tags)
	}
	if cfg.Nested.Inner != "deep" {
		t.Errorf("Nested.Inner = %q, want %q", cfg.Nested.Inner, "deep")
	}
	if cfg.untagged != "kept" {
		t.Errorf("untagged = %q, want %q", cfg.untagged, "kept")
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid integer", "EOS_TEST_COUNT", "twelve"},
		{"integer overflow", "EOS_TEST_COUNT", "99999999999"},
		{"invalid boolean", "EOS_TEST_FLAG", "maybe"},
		{"invalid size", "EOS_TEST_SIZE", "huge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if err := LoadFromEnv(&envTestConfig{}); err == nil {
				t.Errorf("LoadFromEnv() with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_EmptyEnvVars(t *testing.T) {
	t.Setenv("EOS_TEST_NAME", "")

	cfg := &envTestConfig{Name: "default"}
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("Name = %q, want %q", cfg.Name, "default")
	}
}

func TestLoadFromEnv_NilAndNonStruct(t *testing.T) {
	var cfg *envTestConfig
	if err := LoadFromEnv(cfg); err != nil {
		t.Errorf("LoadFromEnv(nil) = %v, want nil", err)
	}
	n := 3
	if err := LoadFromEnv(&n); err != nil {
		t.Errorf("LoadFromEnv(*int) = %v, want nil", err)
	}
}
