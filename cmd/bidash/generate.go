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

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DIK2022/BI-System/export"
	"github.com/DIK2022/BI-System/loader"
)

var (
	generate_cmd  = app.Command("generate", "Generate a synthetic sales dataset")
	generate_rows = generate_cmd.Arg("rows", "Number of rows").Required().Int()

	generate_seed = generate_cmd.Flag("seed", "Random seed").Default("1").Int64()

	generate_out = generate_cmd.Flag("out",
		"Write to this file instead of displaying").String()
)

func doGenerate() {
	ds, err := loader.Generate(*generate_rows, *generate_seed)
	kingpin.FatalIfError(err, "Generate ")

	if *generate_out != "" {
		ctx, cancel := timeoutContext(0)
		defer cancel()

		err := export.WriteFile(ctx, ds, *generate_out)
		kingpin.FatalIfError(err, "Export ")
		fmt.Printf("wrote %d rows to %s\n", ds.RowCount(), *generate_out)
		return
	}

	err = renderDataset(os.Stdout, ds)
	kingpin.FatalIfError(err, "Render ")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case generate_cmd.FullCommand():
			doGenerate()

		default:
			return false
		}
		return true
	})
}
