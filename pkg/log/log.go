// Copyright 2019 Intel Corporation. All Rights Reserved.
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

// Package log is a small, named-logger-per-source-prefix logging
// facility: a Logger is fetched by name, callers format messages with
// Info/Warn/Error/Debug, and a single process-wide default logger
// exists for package-level callers that don't want to carry one
// around.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger emits leveled, prefixed messages for one named source.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type prefixLogger struct {
	prefix string
	debug  bool
	std    *log.Logger
}

func (l *prefixLogger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("D", format, args...)
}

func (l *prefixLogger) Info(format string, args ...interface{})  { l.emit("I", format, args...) }
func (l *prefixLogger) Warn(format string, args ...interface{})  { l.emit("W", format, args...) }
func (l *prefixLogger) Error(format string, args ...interface{}) { l.emit("E", format, args...) }

func (l *prefixLogger) emit(level, format string, args ...interface{}) {
	l.std.Printf("%s: [%s] %s", level, l.prefix, fmt.Sprintf(format, args...))
}

var (
	mu      sync.Mutex
	loggers = map[string]*prefixLogger{}
	debug   = os.Getenv("GROUPPLACE_DEBUG") != ""
)

// Get returns the named logger, creating it on first use. Repeated
// calls with the same name return the same instance.
func Get(name string) Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}
	l := &prefixLogger{prefix: name, debug: debug, std: log.New(os.Stderr, "", log.LstdFlags)}
	loggers[name] = l
	return l
}

var deflog = Get("groupplace")

// Default returns the process-wide default Logger.
func Default() Logger { return deflog }

// Info formats and emits an informational message on the default logger.
func Info(format string, args ...interface{}) { deflog.Info(format, args...) }

// Warn formats and emits a warning message on the default logger.
func Warn(format string, args ...interface{}) { deflog.Warn(format, args...) }

// Error formats and emits an error message on the default logger.
func Error(format string, args ...interface{}) { deflog.Error(format, args...) }

// Debug formats and emits a debug message on the default logger.
func Debug(format string, args ...interface{}) { deflog.Debug(format, args...) }
