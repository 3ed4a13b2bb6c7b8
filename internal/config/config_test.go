package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/rampgen/internal/load"
)

const httpYAML = `
name: checkout
target:
  type: http
  url: http://localhost:8080/checkout
  method: POST
  headers:
    Content-Type: application/json
  body: '{"sku": 1}'
  expect:
    - path: $.status
      equals: ok
load:
  startPps: 100
  step: 50
  maxPps: 1000
  duration: 5s
  parallel: 2
  maxRunTime: 10m
output:
  statsFile: stats.csv
  interval: 500ms
  metricsAddr: ":9100"
  format: json
`

func TestParseConfig_YAML(t *testing.T) {
	cfg, err := ParseConfig([]byte(httpYAML), "test.yaml")
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Name)
	assert.Equal(t, TargetHTTP, cfg.Target.Type)
	assert.Equal(t, "POST", cfg.Target.Method)
	assert.Equal(t, Duration(DefaultTimeout), cfg.Target.Timeout)
	assert.Equal(t, []Expectation{{Path: "$.status", Equals: "ok"}}, cfg.Target.Expect)
	assert.Equal(t, Duration(10*time.Minute), cfg.Load.MaxRunTime)
	assert.Equal(t, Duration(500*time.Millisecond), cfg.Output.Interval)

	assert.Equal(t, load.Config{
		StartPPS:     100,
		MaxPPS:       1000,
		Step:         50,
		Duration:     5 * time.Second,
		Parallel:     2,
		Milliseconds: load.DefaultMilliseconds,
	}, cfg.Load.Generator())
}

func TestParseConfig_JSON(t *testing.T) {
	data := `{
		"target": {"type": "udp", "address": "127.0.0.1:9000", "payloadSize": 128},
		"load": {"startPps": 10, "duration": "1s"}
	}`

	cfg, err := ParseConfig([]byte(data), "test.json")
	require.NoError(t, err)

	assert.Equal(t, TargetUDP, cfg.Target.Type)
	assert.Equal(t, 128, cfg.Target.PayloadSize)
	assert.Equal(t, Duration(DefaultReplyTimeout), cfg.Target.ReplyTimeout)
	assert.Equal(t, Duration(time.Second), cfg.Load.Duration)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestParseConfig_InfersType(t *testing.T) {
	cfg, err := ParseConfig([]byte("target:\n  address: localhost:7\n"), "x.yml")
	require.NoError(t, err)
	assert.Equal(t, TargetUDP, cfg.Target.Type)
	assert.Equal(t, Duration(DefaultStepDuration), cfg.Load.Duration)
}

func TestParseConfig_SchemaErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		contains string
	}{
		{"missing target", "load:\n  startPps: 1\n", "target"},
		{"unknown field", "target:\n  type: http\n  url: http://x\n  retries: 3\n", "retries"},
		{"bad duration", "target:\n  type: simulate\nload:\n  duration: soon\n", "/load/duration"},
		{"negative rate", "target:\n  type: simulate\nload:\n  startPps: -1\n", "/load/startPps"},
		{"bad type", "target:\n  type: tcp\n", "/target/type"},
		{"bad format", "target:\n  type: simulate\noutput:\n  format: xml\n", "/output/format"},
		{"empty document", "", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), "test.yaml")
			require.Error(t, err)

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %T: %v", err, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseConfig_SyntaxErrors(t *testing.T) {
	_, err := ParseConfig([]byte("target: [unclosed"), "test.yaml")
	assert.ErrorContains(t, err, "failed to parse YAML config")

	_, err = ParseConfig([]byte(`{"target":`), "test.json")
	assert.ErrorContains(t, err, "failed to parse JSON config")
}

func TestValidate(t *testing.T) {
	valid := func() *TestConfig {
		c := &TestConfig{Target: TargetConfig{Type: TargetSimulate}}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name   string
		modify func(*TestConfig)
		fields []string
	}{
		{"valid", func(*TestConfig) {}, nil},
		{"http without url", func(c *TestConfig) { c.Target = TargetConfig{Type: TargetHTTP} }, []string{"target.url"}},
		{"http bad scheme", func(c *TestConfig) { c.Target = TargetConfig{Type: TargetHTTP, URL: "ftp://x/"} }, []string{"target.url"}},
		{"http no host", func(c *TestConfig) { c.Target = TargetConfig{Type: TargetHTTP, URL: "http:///x"} }, []string{"target.url"}},
		{"udp bad address", func(c *TestConfig) { c.Target = TargetConfig{Type: TargetUDP, Address: "nohost"} }, []string{"target.address"}},
		{"missing type", func(c *TestConfig) { c.Target.Type = "" }, []string{"target.type"}},
		{"max below start", func(c *TestConfig) { c.Load.StartPPS = 10; c.Load.MaxPPS = 5 }, []string{"load.maxPps"}},
		{"start beyond nanosecond spacing", func(c *TestConfig) { c.Load.StartPPS = 2_000_000_000 }, []string{"load.startPps"}},
		{"fast start with wide bursts", func(c *TestConfig) { c.Load.StartPPS = 2_000_000_000; c.Load.Parallel = 3 }, nil},
		{"several", func(c *TestConfig) {
			c.Load.Duration = 0
			c.Load.Parallel = 0
			c.Output.MetricsAddr = "9100"
		}, []string{"load.parallel", "load.duration", "output.metricsAddr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)

			err := c.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var got []string
			for _, e := range verrs.Errors {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("load.step", "bad")
	assert.Equal(t, "validation error on field 'load.step': bad", errs.Error())

	errs.Add("", "worse")
	assert.True(t, strings.HasPrefix(errs.Error(), "2 validation errors:\n"))
	assert.Contains(t, errs.Error(), "2. validation error: worse")
}

func TestDuration_RoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, Duration(90*time.Second), d)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	require.NoError(t, yaml.Unmarshal([]byte(`250ms`), &d))
	assert.Equal(t, Duration(250*time.Millisecond), d)

	assert.Error(t, json.Unmarshal([]byte(`"fast"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(httpYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/checkout", cfg.Target.URL)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestSchemaIsValidJSON(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(Schema(), &v))
	assert.Equal(t, "object", v["type"])
}
