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

package main

import (
	"context"
	"os"
	"time"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DIK2022/BI-System/internal/config"
	"github.com/DIK2022/BI-System/loader"
	"github.com/DIK2022/BI-System/logging"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("bidash",
		"A tabular data browser and analysis toolkit.")

	config_path = app.Flag("config", "Directory holding bidash.yaml.").Short('c').
			Envar("BIDASH_CONFIG").String()

	verbose_flag = app.Flag(
		"verbose", "Enable verbose logging.").Short('v').
		Default("false").Bool()

	command_handlers []CommandHandler
)

// loadConfigOrDefault reads the configuration and wires the logging
// level. Verbose wins over the configured level.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load(*config_path)
	kingpin.FatalIfError(err, "Load Config ")

	if *verbose_flag {
		logging.SetLevel("debug")
	} else {
		logging.SetLevel(cfg.LogLevel)
	}
	return cfg
}

// loaderOptions applies the configured parsing settings on top of the
// loader defaults.
func loaderOptions(cfg config.Config) loader.Options {
	opts := loader.DefaultOptions()
	opts.Sheet = cfg.Sheet
	opts.Delimiter = cfg.DelimiterRune()
	opts.HasHeader = cfg.HeaderRow
	return opts
}

// timeoutContext creates a context with a configurable timeout for long
// running operations. timeoutSeconds <= 0 falls back to 60 seconds.
func timeoutContext(timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate).DefaultEnvars()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
