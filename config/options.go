// Package config loads process options and the persisted UI settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"voxsheet/hotkey"
	"voxsheet/log"
	"voxsheet/sheet"
	"voxsheet/transcriber"
)

var ErrNoProxyURL = errors.New("VOXSHEET_PROXY_URL is required for the proxy backend")

const (
	DefaultSettingsPath = "app_settings.json"
	DefaultKafkaTopic   = "voxsheet.transcripts"
)

type Options struct {
	Backend      string
	ProxyURL     string
	Credentials  string
	Language     string
	Format       string
	Timeout      time.Duration
	SettingsPath string
	CSVPath      string
	KafkaBrokers []string
	KafkaTopic   string
	MetricsAddr  string
	Hotkey       string
}

// Load reads options from the environment after merging envFile into it.
// Variables already set in the environment win over the file, and a
// missing file is not an error.
func Load(envFile string) (Options, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Options{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	o := Options{
		Backend:      strings.ToLower(envOrDefault("VOXSHEET_BACKEND", transcriber.BackendGoogle)),
		ProxyURL:     os.Getenv("VOXSHEET_PROXY_URL"),
		Credentials:  envOrDefault("VOXSHEET_CREDENTIALS", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		Language:     envOrDefault("VOXSHEET_LANGUAGE", transcriber.DefaultLanguage),
		Format:       strings.ToLower(envOrDefault("VOXSHEET_FORMAT", transcriber.FormatLinear16)),
		Timeout:      transcriber.DefaultTimeout,
		SettingsPath: envOrDefault("VOXSHEET_SETTINGS", DefaultSettingsPath),
		CSVPath:      envOrDefault("VOXSHEET_CSV", sheet.DefaultCSVPath),
		KafkaBrokers: splitList(os.Getenv("VOXSHEET_KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("VOXSHEET_KAFKA_TOPIC", DefaultKafkaTopic),
		MetricsAddr:  os.Getenv("VOXSHEET_METRICS_ADDR"),
		Hotkey:       envOrDefault("VOXSHEET_HOTKEY", hotkey.DefaultCombo),
	}
	if v := os.Getenv("VOXSHEET_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Options{}, fmt.Errorf("VOXSHEET_TIMEOUT: %w", err)
		}
		o.Timeout = d
	}
	return o, nil
}

// Validate rejects unusable combinations. A timeout below the minimum is
// raised rather than rejected.
func (o *Options) Validate() error {
	switch o.Backend {
	case transcriber.BackendGoogle:
	case transcriber.BackendProxy:
		if o.ProxyURL == "" {
			return ErrNoProxyURL
		}
	default:
		return fmt.Errorf("unknown backend %q (want google or proxy)", o.Backend)
	}
	switch o.Format {
	case transcriber.FormatLinear16, transcriber.FormatFLAC:
	default:
		return fmt.Errorf("unknown format %q (want linear16 or flac)", o.Format)
	}
	if o.Hotkey != "" {
		if _, err := hotkey.ParseCombo(o.Hotkey); err != nil {
			return err
		}
	}
	o.ClampTimeout()
	return nil
}

// ClampTimeout raises a timeout below the minimum to the minimum. Modes that
// skip Validate still call it.
func (o *Options) ClampTimeout() {
	if o.Timeout < transcriber.DefaultTimeout {
		log.Warnf("transcription timeout %v below minimum, using %v", o.Timeout, transcriber.DefaultTimeout)
		o.Timeout = transcriber.DefaultTimeout
	}
}

// Combo is the configured hotkey, or the default when it is unset or invalid.
func (o Options) Combo() hotkey.Combo {
	if c, err := hotkey.ParseCombo(o.Hotkey); err == nil {
		return c
	}
	return hotkey.MustParseCombo(hotkey.DefaultCombo)
}

func (o Options) Transcriber() transcriber.Config {
	return transcriber.Config{
		Backend:     o.Backend,
		ProxyURL:    o.ProxyURL,
		Credentials: o.Credentials,
		Language:    o.Language,
		Format:      o.Format,
		Timeout:     o.Timeout,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
