package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Overrides carries values given on the command line.
// Empty fields leave the lower-precedence value in place.
type Overrides struct {
	BackendURL    string
	WalletAddress string
	MetricsAddr   string
	Verbose       bool
}

// Settings is the session-wide configuration, resolved once at start
type Settings struct {
	BackendURL      string
	WalletAddress   string
	Timeout         time.Duration
	Verbose         bool
	CopyToClipboard bool
	MetricsAddr     string
	Markdown        MarkdownConfig
}

// Resolve merges the config file, environment and command line overrides.
// Precedence: flags > environment > config file > defaults.
func Resolve(cfg Config, o Overrides) (Settings, error) {
	s := Settings{
		BackendURL:      cfg.BackendURL,
		WalletAddress:   cfg.WalletAddress,
		Timeout:         cfg.Timeout(),
		Verbose:         cfg.Verbose,
		CopyToClipboard: cfg.CopyToClipboard,
		MetricsAddr:     cfg.MetricsAddr,
		Markdown:        cfg.Markdown,
	}

	if v := os.Getenv(EnvBackendURL); v != "" {
		s.BackendURL = v
	}
	if v := os.Getenv(EnvWalletAddress); v != "" {
		s.WalletAddress = v
	}

	if o.BackendURL != "" {
		s.BackendURL = o.BackendURL
	}
	if o.WalletAddress != "" {
		s.WalletAddress = o.WalletAddress
	}
	if o.MetricsAddr != "" {
		s.MetricsAddr = o.MetricsAddr
	}
	if o.Verbose {
		s.Verbose = true
	}

	if s.BackendURL == "" {
		s.BackendURL = DefaultConfig().BackendURL
	}
	normalized, err := NormalizeBackendURL(s.BackendURL)
	if err != nil {
		return Settings{}, err
	}
	s.BackendURL = normalized
	s.WalletAddress = strings.TrimSpace(s.WalletAddress)

	return s, nil
}

// NormalizeBackendURL validates an origin and strips trailing slashes
func NormalizeBackendURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid backend url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid backend url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid backend url %q: missing host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// ValidateWalletAddress checks for a 0x-prefixed 20-byte hex account address
func ValidateWalletAddress(addr string) error {
	hex, ok := strings.CutPrefix(addr, "0x")
	if !ok || len(hex) != 40 {
		return fmt.Errorf("wallet address must be 0x followed by 40 hex digits, got %q", addr)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return fmt.Errorf("wallet address %q contains a non-hex character", addr)
		}
	}
	return nil
}

// setters maps `walrus config set` keys to their parsers
var setters = map[string]func(*Config, string) error{
	"backend_url": func(c *Config, v string) error {
		normalized, err := NormalizeBackendURL(v)
		if err != nil {
			return err
		}
		c.BackendURL = normalized
		return nil
	},
	"wallet_address": func(c *Config, v string) error {
		v = strings.TrimSpace(v)
		if v != "" {
			if err := ValidateWalletAddress(v); err != nil {
				return err
			}
		}
		c.WalletAddress = v
		return nil
	},
	"request_timeout": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("request_timeout must be a positive number of seconds, got %q", v)
		}
		c.RequestTimeout = n
		return nil
	},
	"verbose":           boolSetter(func(c *Config, b bool) { c.Verbose = b }),
	"copy_to_clipboard": boolSetter(func(c *Config, b bool) { c.CopyToClipboard = b }),
	"metrics_addr": func(c *Config, v string) error {
		c.MetricsAddr = strings.TrimSpace(v)
		return nil
	},
	"markdown.style": func(c *Config, v string) error {
		v = strings.TrimSpace(v)
		if err := ValidateStyle(v); err != nil {
			return err
		}
		c.Markdown.Style = v
		return nil
	},
	"markdown.enable_emoji":       boolSetter(func(c *Config, b bool) { c.Markdown.EnableEmoji = b }),
	"markdown.preserve_newlines":  boolSetter(func(c *Config, b bool) { c.Markdown.PreserveNewLines = b }),
	"markdown.table_wrap":         boolSetter(func(c *Config, b bool) { c.Markdown.TableWrap = b }),
	"markdown.inline_table_links": boolSetter(func(c *Config, b bool) { c.Markdown.InlineTableLinks = b }),
}

func boolSetter(apply func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(c, b)
		return nil
	}
}

// Set updates a single key on cfg, validating the value
func Set(cfg Config, key, value string) (Config, error) {
	setter, ok := setters[key]
	if !ok {
		return cfg, fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := setter(&cfg, value); err != nil {
		return cfg, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return cfg, nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
