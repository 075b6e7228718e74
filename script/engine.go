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

// Package script runs user supplied Go snippets against loaded data.
//
// Snippets are executed by an embedded interpreter with the standard
// library available. Each execution gets a fresh interpreter so one
// script cannot leak variables or state into the next.
package script

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/logging"
)

const defaultTimeout = 60 * time.Second

// runTemplate wraps a snippet of statements into a complete program.
// The blank assignments keep the prelude imports legal when a snippet
// uses only some of them.
const runTemplate = `package main

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	_ = fmt.Sprint
	_ = math.Abs
	_ = strings.TrimSpace
	_ = time.Now
)

func main() {
%s
}
`

// deriveImports is evaluated before a row expression so it can call into
// the usual helper packages without declaring its own imports.
const deriveImports = `import (
	"fmt"
	"math"
	"strings"
	"time"
)`

// RowFunc is the shape a derive expression must evaluate to. The map
// holds one entry per column, keyed by column name; null cells are nil.
type RowFunc = func(map[string]interface{}) interface{}

// Result holds the captured output of a script run. Output is filled in
// even when the run fails, so callers can show what the script printed
// before it stopped.
type Result struct {
	Output   string
	Duration time.Duration
}

// Engine evaluates Go snippets.
type Engine struct {
	timeout time.Duration
	logger  *logrus.Entry
}

// NewEngine returns an engine with the default 60 second timeout.
func NewEngine() *Engine {
	return &Engine{
		timeout: defaultTimeout,
		logger:  logging.Component("script"),
	}
}

// SetTimeout changes how long Run waits for a script before abandoning
// it. Values <= 0 restore the default.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = defaultTimeout
	}
	e.timeout = d
}

// Run executes a snippet of Go statements and captures everything it
// prints to stdout and stderr. The snippet is wrapped into a main
// function with fmt, math, strings and time already imported.
//
// The interpreter cannot be preempted mid call, so when the deadline
// passes the script goroutine is abandoned and Run returns the output
// captured so far together with the context error.
func (e *Engine) Run(ctx context.Context, code string) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: script is empty", datatable.ErrEmptyData)
	}
	if err := CheckSource(code); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var out syncBuffer
	i := interp.New(interp.Options{Stdout: &out, Stderr: &out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading interpreter symbols: %w", err)
	}

	wrapped := fmt.Sprintf(runTemplate, code)
	start := time.Now()
	done := make(chan error, 1)
	go func() {
		_, err := i.Eval(wrapped)
		done <- err
	}()

	select {
	case err := <-done:
		res := &Result{Output: out.String(), Duration: time.Since(start)}
		if err != nil {
			return res, fmt.Errorf("script failed: %w", err)
		}
		return res, nil
	case <-ctx.Done():
		e.logger.WithField("timeout", e.timeout).Warn("script did not finish, abandoning interpreter")
		return &Result{Output: out.String(), Duration: time.Since(start)}, ctx.Err()
	}
}

// DeriveColumn evaluates expr once to obtain a row function and applies
// it to every row of ds, returning the results as a new column. expr
// must be a Go function literal of the form
//
//	func(row map[string]interface{}) interface{} { ... }
//
// where the map holds the raw cell values of the current row. Returning
// nil marks the derived cell as null.
func (e *Engine) DeriveColumn(ctx context.Context, ds *datatable.Dataset, name, expr string) (*datatable.Column, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}
	if ds.ColumnIndex(name) >= 0 {
		return nil, fmt.Errorf("%w: %q", datatable.ErrDuplicateColumn, name)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading interpreter symbols: %w", err)
	}
	if _, err := i.Eval(deriveImports); err != nil {
		return nil, fmt.Errorf("loading expression imports: %w", err)
	}

	v, err := i.Eval(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling expression: %w", err)
	}
	fn, ok := v.Interface().(RowFunc)
	if !ok {
		return nil, fmt.Errorf("%w: expression must be a func(row map[string]interface{}) interface{}", datatable.ErrTypeMismatch)
	}

	names := ds.ColumnNames()
	raws := make([]interface{}, ds.RowCount())
	for row := 0; row < ds.RowCount(); row++ {
		if row%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cells := make(map[string]interface{}, len(names))
		for col, colName := range names {
			value, err := ds.Cell(row, col)
			if err != nil {
				return nil, err
			}
			if value.IsNull {
				cells[colName] = nil
			} else {
				cells[colName] = value.Raw
			}
		}
		out, err := callRowFunc(fn, cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		raws[row] = out
	}

	return datatable.NewColumnFromInterfaces(name, raws), nil
}

// callRowFunc invokes an interpreted row function, converting a panic
// inside the script into an error.
func callRowFunc(fn RowFunc, row map[string]interface{}) (out interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("row function panicked: %v", r)
		}
	}()
	return fn(row), nil
}

// syncBuffer guards the capture buffer so output can still be read when
// an abandoned script goroutine keeps writing to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
