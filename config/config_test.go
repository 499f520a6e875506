package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oslo-surface/midi"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "Faderfox", cfg.MIDI.Port)
	assert.Equal(t, time.Second, cfg.MIDI.PollInterval)
	assert.Equal(t, "127.0.0.1:11001", cfg.OSC.Listen)
	assert.Equal(t, 11000, cfg.OSC.Port)
	assert.Equal(t, 11, cfg.Surface.NumTracks)
	assert.Equal(t, 2, cfg.Surface.PulseDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Surface.TickInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, midi.DefaultLayout(), cfg.Layout)
}

func TestInitReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oslo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
midi:
  port: "EC4"
surface:
  num_tracks: 8
  tick_interval: 50ms
layout:
  sends: [16, 24, 64]
  play: 100
`), 0644))

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "EC4", cfg.MIDI.Port)
	assert.Equal(t, 8, cfg.Surface.NumTracks)
	assert.Equal(t, 50*time.Millisecond, cfg.Surface.TickInterval)
	assert.Equal(t, []uint8{16, 24, 64}, cfg.Layout.Sends)
	assert.Equal(t, uint8(100), cfg.Layout.Play)
	assert.Equal(t, uint8(40), cfg.Layout.Volume, "unset keys keep defaults")
}

func TestInitMissingExplicitFile(t *testing.T) {
	err := Init(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInitWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	require.NoError(t, Init(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Surface.NumTracks)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OSLO_MIDI_PORT", "Oslo")
	t.Setenv("OSLO_OSC_PORT", "9000")
	t.Setenv("OSLO_SURFACE_PULSE_DELAY", "3")

	v := viper.New()
	require.NoError(t, Init(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "Oslo", cfg.MIDI.Port)
	assert.Equal(t, 9000, cfg.OSC.Port)
	assert.Equal(t, 3, cfg.Surface.PulseDelay)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	good, err := Load(v)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.MIDI.Port = "  " }},
		{"poll interval", func(c *Config) { c.MIDI.PollInterval = 0 }},
		{"osc port", func(c *Config) { c.OSC.Port = 70000 }},
		{"osc listen", func(c *Config) { c.OSC.Listen = "" }},
		{"window", func(c *Config) { c.Surface.NumTracks = 0 }},
		{"pulse", func(c *Config) { c.Surface.PulseDelay = 0 }},
		{"tick", func(c *Config) { c.Surface.TickInterval = -time.Second }},
		{"level", func(c *Config) { c.Log.Level = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	err := Config{}.Validate()

	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "midi.port")
	assert.Contains(t, err.Error(), "surface.num_tracks")
	assert.Contains(t, err.Error(), "osc.port")
}

func TestWriteDefaultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", ".oslo.yaml")
	require.NoError(t, WriteDefaults(path))

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, midi.DefaultLayout(), cfg.Layout)
	assert.Equal(t, 100*time.Millisecond, cfg.Surface.TickInterval)
}

func TestWatchAppliesValidEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oslo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0644))
	v := viper.New()
	require.NoError(t, Init(v, path))

	changes := make(chan Config, 16)
	Watch(v, func(c Config) {
		select {
		case changes <- c:
		default:
		}
	}, nil)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644))

	// a write can surface as several events, the first one may see a truncated file
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Log.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
