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
	"fmt"
	"os"
	"time"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DIK2022/BI-System/export"
	"github.com/DIK2022/BI-System/loader"
	"github.com/DIK2022/BI-System/script"
)

var (
	script_cmd  = app.Command("script", "Run a Go snippet, or derive a column from data")
	script_file = script_cmd.Arg("file", "Script file to execute").String()

	script_data = script_cmd.Flag("data",
		"Data file a --derive expression runs over").String()

	script_derive = script_cmd.Flag("derive",
		"Row expression deriving a new column: func(row map[string]interface{}) interface{} { ... }").String()

	script_name = script_cmd.Flag("name", "Name of the derived column").
			Default("derived").String()

	script_out = script_cmd.Flag("out",
		"Write the derived table to this file instead of displaying").String()
)

func doScript() {
	cfg := loadConfigOrDefault()

	engine := script.NewEngine()
	engine.SetTimeout(time.Duration(cfg.ScriptTimeout) * time.Second)

	ctx, cancel := timeoutContext(cfg.ScriptTimeout)
	defer cancel()

	if *script_derive != "" {
		if *script_data == "" {
			kingpin.Fatalf("--derive requires --data")
		}

		ds, err := loader.LoadWithOptions(ctx, *script_data, loaderOptions(cfg))
		kingpin.FatalIfError(err, "Load data ")

		col, err := engine.DeriveColumn(ctx, ds, *script_name, *script_derive)
		kingpin.FatalIfError(err, "Derive ")
		err = ds.AddColumn(col)
		kingpin.FatalIfError(err, "Derive ")

		if *script_out != "" {
			err := export.WriteFile(ctx, ds, *script_out)
			kingpin.FatalIfError(err, "Export ")
			fmt.Printf("wrote %d rows to %s\n", ds.RowCount(), *script_out)
			return
		}
		err = renderDataset(os.Stdout, ds)
		kingpin.FatalIfError(err, "Render ")
		return
	}

	if *script_file == "" {
		kingpin.Fatalf("give a script file, or --derive with --data")
	}

	code, err := os.ReadFile(*script_file)
	kingpin.FatalIfError(err, "Read script ")

	res, err := engine.Run(ctx, string(code))
	if res != nil && res.Output != "" {
		fmt.Print(res.Output)
	}
	kingpin.FatalIfError(err, "Run script ")

	fmt.Printf("finished in %s\n", res.Duration.Round(time.Millisecond))
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case script_cmd.FullCommand():
			doScript()

		default:
			return false
		}
		return true
	})
}
