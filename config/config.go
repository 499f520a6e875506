package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"oslo-surface/midi"
)

var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes environment overrides, e.g. OSLO_MIDI_PORT
const EnvPrefix = "OSLO"

// FileName is the config file name searched in the working and config directories
const FileName = ".oslo"

// MIDIConfig selects the controller port
type MIDIConfig struct {
	Port         string        `mapstructure:"port"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// OSCConfig holds the host endpoints
type OSCConfig struct {
	Listen string `mapstructure:"listen"`
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
}

// SurfaceConfig tunes the surface core
type SurfaceConfig struct {
	NumTracks    int           `mapstructure:"num_tracks"`
	PulseDelay   int           `mapstructure:"pulse_delay"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// LogConfig selects the log level and file
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config holds all runtime configuration.
// Values are populated from .oslo.yaml, OSLO_* env vars, and CLI flags.
type Config struct {
	MIDI    MIDIConfig    `mapstructure:"midi"`
	OSC     OSCConfig     `mapstructure:"osc"`
	Surface SurfaceConfig `mapstructure:"surface"`
	Log     LogConfig     `mapstructure:"log"`
	Layout  midi.Layout   `mapstructure:"layout"`
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "oslo-surface"), nil
}

// SetDefaults registers built-in defaults on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("midi.port", "Faderfox")
	v.SetDefault("midi.poll_interval", midi.DefaultPollInterval.String())

	v.SetDefault("osc.listen", "127.0.0.1:11001")
	v.SetDefault("osc.host", "127.0.0.1")
	v.SetDefault("osc.port", 11000)

	v.SetDefault("surface.num_tracks", midi.DefaultStrips)
	v.SetDefault("surface.pulse_delay", 2)
	v.SetDefault("surface.tick_interval", (100 * time.Millisecond).String())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	l := midi.DefaultLayout()
	v.SetDefault("layout.track_channel", l.TrackChannel)
	v.SetDefault("layout.global_channel", l.GlobalChannel)
	v.SetDefault("layout.volume", l.Volume)
	v.SetDefault("layout.pan", l.Pan)
	v.SetDefault("layout.sends", ints(l.Sends))
	v.SetDefault("layout.mute", l.Mute)
	v.SetDefault("layout.param", l.Param)
	v.SetDefault("layout.track_select", l.TrackSelect)
	v.SetDefault("layout.return_volumes", ints(l.ReturnVolumes))
	v.SetDefault("layout.master_volume", l.MasterVolume)
	v.SetDefault("layout.master_pan", l.MasterPan)
	v.SetDefault("layout.play", l.Play)
}

// ints keeps byte slices from being written to YAML as strings
func ints(in []uint8) []int {
	out := make([]int, len(in))
	for i, b := range in {
		out[i] = int(b)
	}
	return out
}

// Init points v at the config file (or the default search path) and
// environment. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates the current values of v
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value at once
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.MIDI.Port) == "" {
		errs = append(errs, errors.New("midi.port is empty"))
	}
	if c.MIDI.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("midi.poll_interval %s must be positive", c.MIDI.PollInterval))
	}
	if c.OSC.Port < 1 || c.OSC.Port > 65535 {
		errs = append(errs, fmt.Errorf("osc.port %d out of range", c.OSC.Port))
	}
	if c.OSC.Listen == "" {
		errs = append(errs, errors.New("osc.listen is empty"))
	}
	if c.Surface.NumTracks < 1 {
		errs = append(errs, fmt.Errorf("surface.num_tracks %d must be at least 1", c.Surface.NumTracks))
	}
	if c.Surface.PulseDelay < 1 {
		errs = append(errs, fmt.Errorf("surface.pulse_delay %d must be at least 1", c.Surface.PulseDelay))
	}
	if c.Surface.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("surface.tick_interval %s must be positive", c.Surface.TickInterval))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %v", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Watch reloads the config file on change and passes every valid result to
// fn. Invalid edits go to onError and the previous config stays in effect.
func Watch(v *viper.Viper, fn func(Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(cfg)
	})
	v.WatchConfig()
}

// WriteDefaults writes a config file holding the built-in defaults
func WriteDefaults(path string) error {
	v := viper.New()
	SetDefaults(v)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}
