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

// Package logging carries the process-wide diagnostic logger. Core
// packages log through component entries and never surface logging
// failures to their callers.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Component returns a logger entry tagged with a component name.
func Component(name string) *logrus.Entry {
	return root.WithField("component", name)
}

// SetLevel adjusts the global log level. Unknown level names are
// ignored and the current level kept.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		root.WithField("level", level).Warn("unknown log level")
		return
	}
	root.SetLevel(parsed)
}

// SetOutput redirects all diagnostic output, mainly for tests.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}
