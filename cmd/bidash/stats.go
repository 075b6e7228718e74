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
	"strconv"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DIK2022/BI-System/loader"
	"github.com/DIK2022/BI-System/stats"
)

var (
	stats_cmd  = app.Command("stats", "Summarize a data file")
	stats_file = stats_cmd.Arg("file", "Data file to analyze").Required().String()

	stats_describe = stats_cmd.Flag("describe",
		"Show numeric summaries as a table").Bool()

	stats_corr = stats_cmd.Flag("correlation",
		"Show the correlation matrix of numeric columns").Bool()

	stats_group = stats_cmd.Flag("group-by",
		"Group rows by this column").String()

	stats_measure = stats_cmd.Flag("measure",
		"Column aggregated per group").String()

	stats_agg = stats_cmd.Flag("agg", "Aggregation for --group-by").
			Default(stats.AggSum).
			Enum(stats.AggSum, stats.AggMean, stats.AggCount, stats.AggMin, stats.AggMax, stats.AggStd)
)

func doStats() {
	cfg := loadConfigOrDefault()

	ctx, cancel := timeoutContext(0)
	defer cancel()

	ds, err := loader.LoadWithOptions(ctx, *stats_file, loaderOptions(cfg))
	kingpin.FatalIfError(err, "Load data ")

	switch {
	case *stats_group != "":
		if *stats_measure == "" {
			kingpin.Fatalf("--group-by requires --measure")
		}
		result, err := stats.GroupBy(ds, *stats_group, *stats_measure, *stats_agg)
		kingpin.FatalIfError(err, "Group ")
		err = renderDataset(os.Stdout, result)
		kingpin.FatalIfError(err, "Render ")

	case *stats_corr:
		result, err := stats.Correlation(ds)
		kingpin.FatalIfError(err, "Correlate ")
		err = renderDataset(os.Stdout, result)
		kingpin.FatalIfError(err, "Render ")

	case *stats_describe:
		summaries, err := stats.Describe(ds)
		kingpin.FatalIfError(err, "Describe ")

		table := tablewriter.NewWriter(os.Stdout)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"column", "count", "mean", "std", "min", "median", "max"})
		for _, s := range summaries {
			table.Append([]string{
				s.Column,
				strconv.Itoa(s.Count),
				fmt.Sprintf("%.2f", s.Mean),
				fmt.Sprintf("%.2f", s.Std),
				fmt.Sprintf("%.2f", s.Min),
				fmt.Sprintf("%.2f", s.Median),
				fmt.Sprintf("%.2f", s.Max),
			})
		}
		table.Render()

	default:
		report, err := stats.Analyze(ds)
		kingpin.FatalIfError(err, "Analyze ")
		fmt.Println(report)
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case stats_cmd.FullCommand():
			doStats()

		default:
			return false
		}
		return true
	})
}
