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

package loader

import (
	"math"
	"math/rand"
	"time"

	"github.com/DIK2022/BI-System/datatable"
)

var (
	generateCategories = []string{"A", "B", "C", "D"}
	generateRegions    = []string{"North", "South", "East", "West"}
)

// Generate builds a synthetic dataset for demos and benchmarks. The
// same seed always yields the same values; dates count back one day
// per row from today.
func Generate(rows int, seed int64) (*datatable.Dataset, error) {
	if rows < 0 {
		rows = 0
	}
	r := rand.New(rand.NewSource(seed))
	today := time.Now().UTC().Truncate(24 * time.Hour)

	dates := make([]time.Time, rows)
	categories := make([]string, rows)
	valueInts := make([]int64, rows)
	valueFloats := make([]float64, rows)
	sales := make([]float64, rows)
	profits := make([]float64, rows)
	regions := make([]string, rows)
	actives := make([]bool, rows)
	scores := make([]int64, rows)

	for i := 0; i < rows; i++ {
		dates[i] = today.AddDate(0, 0, -i)
		categories[i] = generateCategories[r.Intn(len(generateCategories))]
		valueInts[i] = int64(r.Intn(999)) + 1
		valueFloats[i] = round2(r.Float64() * 1000)
		sales[i] = round2(r.ExpFloat64() * 100)
		profits[i] = round2(500 + 200*r.NormFloat64())
		regions[i] = generateRegions[r.Intn(len(generateRegions))]
		actives[i] = r.Intn(2) == 1
		scores[i] = int64(r.Intn(100)) + 1
	}

	return datatable.NewDataset(
		datatable.NewTimeColumn("date", datatable.TypeDate, dates, nil),
		datatable.NewStringColumn("category", categories, nil),
		datatable.NewIntColumn("value_int", valueInts, nil),
		datatable.NewFloatColumn("value_float", valueFloats, nil),
		datatable.NewFloatColumn("sales", sales, nil),
		datatable.NewFloatColumn("profit", profits, nil),
		datatable.NewStringColumn("region", regions, nil),
		datatable.NewBoolColumn("active", actives, nil),
		datatable.NewIntColumn("score", scores, nil),
	)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
