package config

import (
	"math"
	"os"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "environment variable set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "from-env",
			want:         "from-env",
		},
		{
			name:         "environment variable not set",
			key:          "NONEXISTENT_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt64(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int64
		want         int64
	}{
		{"valid integer", "1234567890123", 10, 1234567890123},
		{"invalid integer", "not-a-number", 10, 10},
		{"not set", "", 99, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT64", tt.envValue)
				defer os.Unsetenv("TEST_INT64")
			}

			got := getEnvInt64("TEST_INT64", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt64() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DUR", "45s")
	defer os.Unsetenv("TEST_DUR")

	if got := getEnvDuration("TEST_DUR", time.Minute); got != 45*time.Second {
		t.Errorf("getEnvDuration() = %v, want 45s", got)
	}
	if got := getEnvDuration("NONEXISTENT_DUR", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration() default = %v, want 1m", got)
	}
}

func validConfig() *Config {
	return &Config{
		Dataset:          "shuttle",
		Model:            "adaptive",
		Seed:             42,
		WindowSize:       1000,
		ProgressInterval: 1000,
		OutputDir:        "benchmark_results",
		NModels:          5,
		Eta:              1.5,
		Proxy:            "auto",
		Contamination:    "p5,p20",
		Normalize:        "minmax",
		LabelPolicy:      "immediate",
		LabelRate:        1.0,
		Storage:          "memory",
		RedisAddr:        "localhost:6379",
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"empty dataset", func(c *Config) { c.Dataset = "" }},
		{"unknown model", func(c *Config) { c.Model = "oracle" }},
		{"external without url", func(c *Config) { c.Model = "external" }},
		{"zero window", func(c *Config) { c.WindowSize = 0 }},
		{"negative window", func(c *Config) { c.WindowSize = -5 }},
		{"negative progress interval", func(c *Config) { c.ProgressInterval = -1 }},
		{"zero pool size", func(c *Config) { c.NModels = 0 }},
		{"zero eta", func(c *Config) { c.Eta = 0 }},
		{"negative eta", func(c *Config) { c.Eta = -1 }},
		{"unknown proxy", func(c *Config) { c.Proxy = "psychic" }},
		{"bad contamination", func(c *Config) { c.Contamination = "p0" }},
		{"unknown normalize", func(c *Config) { c.Normalize = "zscore" }},
		{"unknown label policy", func(c *Config) { c.LabelPolicy = "oracle" }},
		{"negative label delay", func(c *Config) { c.LabelPolicy = "delayed"; c.LabelDelay = -1 }},
		{"label rate above one", func(c *Config) { c.LabelPolicy = "sparse"; c.LabelRate = 1.5 }},
		{"unknown storage", func(c *Config) { c.Storage = "etcd" }},
		{"redis without addr", func(c *Config) { c.Storage = "redis"; c.RedisAddr = "" }},
		{"negative redis db", func(c *Config) { c.Storage = "redis"; c.RedisDB = -1 }},
		{"negative run count", func(c *Config) { c.RunCount = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mut(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_AllModels(t *testing.T) {
	for _, model := range []string{"adaptive", "hst", "loda", "rshash", "iforestasd"} {
		cfg := validConfig()
		cfg.Model = model
		if err := cfg.Validate(); err != nil {
			t.Errorf("model %s rejected: %v", model, err)
		}
	}

	cfg := validConfig()
	cfg.Model = "external"
	cfg.ExternalURL = "http://localhost:9000/score"
	if err := cfg.Validate(); err != nil {
		t.Errorf("external model with url rejected: %v", err)
	}
}

func TestParseContaminationLevels(t *testing.T) {
	tests := []struct {
		input   string
		want    []float64
		wantErr bool
	}{
		{"p5,p20", []float64{0.05, 0.20}, false},
		{"0.05,0.2", []float64{0.05, 0.2}, false},
		{"p10", []float64{0.10}, false},
		{" p5 , p20 ", []float64{0.05, 0.20}, false},
		{"P15", []float64{0.15}, false},
		{"", nil, true},
		{"p0", nil, true},
		{"p100", nil, true},
		{"1.5", nil, true},
		{"-0.1", nil, true},
		{"pxx", nil, true},
		{"abc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseContaminationLevels(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseContaminationLevels(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseContaminationLevels(%q) error = %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("level %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateDatasetName(t *testing.T) {
	for _, name := range []string{"shuttle", "http_small", "kdd-99", "v2.features"} {
		if err := ValidateDatasetName(name); err != nil {
			t.Errorf("valid name %q rejected: %v", name, err)
		}
	}
	for _, name := range []string{"", "has space", "-leading", "trailing-", "a/b"} {
		if err := ValidateDatasetName(name); err == nil {
			t.Errorf("invalid name %q accepted", name)
		}
	}
}
