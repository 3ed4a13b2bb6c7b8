package load

import (
	"errors"
	"testing"
	"time"
)

func TestConfigApplyDefaults(t *testing.T) {
	c := Config{MaxPPS: 500, Step: 10, Duration: time.Second}
	c.ApplyDefaults()

	if c.StartPPS != 1 || c.Milliseconds != 1000 || c.Parallel != 1 {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.MaxPPS != 500 || c.Step != 10 || c.Duration != time.Second {
		t.Errorf("explicit values changed: %+v", c)
	}

	c = Config{StartPPS: 7, Milliseconds: 20, Parallel: 4}
	c.ApplyDefaults()
	if c.StartPPS != 7 || c.Milliseconds != 20 || c.Parallel != 4 {
		t.Errorf("explicit values overwritten: %+v", c)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{StartPPS: 1, Parallel: 1, Duration: time.Second}, false},
		{"valid uncapped", Config{StartPPS: 10, Parallel: 2, Step: 5, Duration: time.Second}, false},
		{"zero start", Config{Parallel: 1, Duration: time.Second}, true},
		{"zero parallel", Config{StartPPS: 1, Duration: time.Second}, true},
		{"zero duration", Config{StartPPS: 1, Parallel: 1}, true},
		{"negative duration", Config{StartPPS: 1, Parallel: 1, Duration: -time.Second}, true},
		{"max below start", Config{StartPPS: 10, MaxPPS: 5, Parallel: 1, Duration: time.Second}, true},
		{"start beyond nanosecond spacing", Config{StartPPS: 2_000_000_000, Parallel: 1, Duration: time.Second}, true},
		{"fast start with wide bursts", Config{StartPPS: 2_000_000_000, Parallel: 3, Duration: time.Second}, false},
		{"one burst per nanosecond", Config{StartPPS: 1_000_000_000, Parallel: 1, Duration: time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}
