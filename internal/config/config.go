// SPDX-License-Identifier: Apache-2.0

// Package config assembles the run configuration from CLI flags and
// environment variables, validating it once at startup the way pgroll's
// cmd/flags package binds PG_URL/SCHEMA/LOCK_TIMEOUT through viper.
package config

import (
	"fmt"

	"github.com/pgredact/pgredact/internal/locale"
	"github.com/pgredact/pgredact/internal/perrors"
)

// Format is an explicit CLI override of the Format Demultiplexer's
// auto-detection.
type Format string

const (
	FormatAuto   Format = ""
	FormatPlain  Format = "plain"
	FormatCustom Format = "custom"
)

// Config is the fully-resolved, validated set of inputs a redact run
// needs. It is built once, at startup, and never mutated afterwards.
type Config struct {
	Locale              locale.Code
	Delimiter           byte
	Format              Format
	DeleteTablePatterns []string

	SecretKey      []byte
	SecretKeyNonce []byte
}

// Resolve validates the raw flag and environment values and assembles
// them into a Config: the locale must be en or ru, the format one of
// plain/p/custom/c/auto/"", and the delimiter a single byte (`\t` and `\n`
// are accepted as escapes). Any other value yields a ConfigError.
func Resolve(localeFlag, formatFlag, delimiterFlag string, deleteTablePatterns []string, secretKey, secretKeyNonce string) (Config, error) {
	cfg := Config{
		DeleteTablePatterns: deleteTablePatterns,
		SecretKey:           []byte(secretKey),
		SecretKeyNonce:      []byte(secretKeyNonce),
	}

	if !locale.Valid(localeFlag) {
		return Config{}, &perrors.ConfigError{Reason: fmt.Sprintf("unsupported locale %q (must be one of: en, ru)", localeFlag)}
	}
	cfg.Locale = locale.Code(localeFlag)

	switch formatFlag {
	case "", "auto":
		cfg.Format = FormatAuto
	case "plain", "p":
		cfg.Format = FormatPlain
	case "custom", "c":
		cfg.Format = FormatCustom
	default:
		return Config{}, &perrors.ConfigError{Reason: fmt.Sprintf("unsupported format %q (must be plain/p, custom/c, or omitted)", formatFlag)}
	}

	delim := delimiterFlag
	switch delim {
	case `\t`:
		delim = "\t"
	case `\n`:
		delim = "\n"
	}
	if len(delim) != 1 {
		return Config{}, &perrors.ConfigError{Reason: fmt.Sprintf("--delimiter must be a single byte, got %q", delimiterFlag)}
	}
	cfg.Delimiter = delim[0]

	return cfg, nil
}
