// Copyright 2025 The BI-System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads tool settings from an optional bidash.yaml file,
// with environment variable overrides under the BIDASH_ prefix.
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/DIK2022/BI-System/logging"
	"github.com/DIK2022/BI-System/theme"
)

// Config holds the user-tunable settings.
type Config struct {
	// Theme names the display palette: light, dark or blue.
	Theme string

	// RowLimit caps how many rows table views render. Zero means all.
	RowLimit int

	// ScriptTimeout is the script execution deadline in seconds.
	ScriptTimeout int

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Sheet names the workbook sheet to load from Excel files. Empty
	// means the first sheet.
	Sheet string

	// Delimiter is the CSV field separator: one character, or "tab".
	// Empty means sniff it from the first line.
	Delimiter string

	// HeaderRow treats the first row of delimited files as column
	// names.
	HeaderRow bool
}

// DefaultConfig returns the settings used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Theme:         "light",
		RowLimit:      0,
		ScriptTimeout: 60,
		LogLevel:      "warning",
		Sheet:         "",
		Delimiter:     "",
		HeaderRow:     true,
	}
}

// Load reads bidash.yaml from configPath (or the working directory when
// empty), applies environment overrides and validates the result. A
// missing file is fine; a malformed one is not.
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()
	logger := logging.Component("config")

	v := viper.New()
	v.SetConfigName("bidash")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bidash")
	}
	v.AutomaticEnv()
	v.SetEnvPrefix("BIDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map nested keys to flat env vars like BIDASH_DISPLAY_THEME.
	v.BindEnv("display.theme")
	v.BindEnv("display.row_limit")
	v.BindEnv("script.timeout_seconds")
	v.BindEnv("log.level")
	v.BindEnv("loader.sheet")
	v.BindEnv("loader.delimiter")
	v.BindEnv("loader.header_row")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		logger.Debug("no config file found, using defaults and env vars")
	} else {
		logger.WithField("file", v.ConfigFileUsed()).Info("loaded configuration")
	}

	// Override defaults only for keys that are actually set.
	if v.IsSet("display.theme") {
		cfg.Theme = v.GetString("display.theme")
	}
	if v.IsSet("display.row_limit") {
		cfg.RowLimit = v.GetInt("display.row_limit")
	}
	if v.IsSet("script.timeout_seconds") {
		cfg.ScriptTimeout = v.GetInt("script.timeout_seconds")
	}
	if v.IsSet("log.level") {
		cfg.LogLevel = v.GetString("log.level")
	}
	if v.IsSet("loader.sheet") {
		cfg.Sheet = v.GetString("loader.sheet")
	}
	if v.IsSet("loader.delimiter") {
		cfg.Delimiter = v.GetString("loader.delimiter")
	}
	if v.IsSet("loader.header_row") {
		cfg.HeaderRow = v.GetBool("loader.header_row")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that every setting has a usable value.
func (c Config) Validate() error {
	if _, err := theme.ParseVariant(c.Theme); err != nil {
		return fmt.Errorf("display.theme: %w", err)
	}
	if c.RowLimit < 0 {
		return fmt.Errorf("display.row_limit must not be negative, got %d", c.RowLimit)
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("script.timeout_seconds must be positive, got %d", c.ScriptTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Delimiter != "" && c.Delimiter != "tab" && utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("loader.delimiter must be one character or \"tab\", got %q", c.Delimiter)
	}
	return nil
}

// DelimiterRune resolves the configured delimiter. Zero means the
// loader should sniff it.
func (c Config) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
