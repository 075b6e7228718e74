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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/DIK2022/BI-System/datatable"
)

// LoadJSON reads a JSON file into a dataset. The document must be an
// array of objects; a single object becomes a one-row dataset.
func LoadJSON(ctx context.Context, path string) (*datatable.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseJSON(content)
}

// ParseJSON decodes JSON content into a dataset. Numbers keep their
// integer or float identity; object keys form the columns in name
// order and keys missing from a record become nulls.
func ParseJSON(content []byte) (*datatable.Dataset, error) {
	rows, err := decodeObjects(content)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, datatable.ErrEmptyData
	}

	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	cols := make([]*datatable.Column, len(names))
	for i, name := range names {
		raws := make([]interface{}, len(rows))
		for r, row := range rows {
			raws[r] = normalizeJSONValue(row[name])
		}
		cols[i] = datatable.NewColumnFromInterfaces(name, raws)
	}
	return datatable.NewDataset(cols...)
}

func decodeObjects(content []byte) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var rows []map[string]interface{}
	if err := dec.Decode(&rows); err == nil {
		return rows, nil
	}

	dec = json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var single map[string]interface{}
	if err := dec.Decode(&single); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return []map[string]interface{}{single}, nil
}

// normalizeJSONValue resolves json.Number into int64 or float64 and
// flattens nested structures to their JSON text.
func normalizeJSONValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return v
	}
}
