// Copyright 2025 Google LLC
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

package repl

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorDim   = "\033[2m"
	colorReset = "\033[0m"
)

// colorEnabled is decided once at startup: colorizing a piped or redirected
// stdout just litters log files and CI output with escape codes.
var colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))

func red(s string) string   { return colorize(colorRed, s) }
func green(s string) string { return colorize(colorGreen, s) }
func dim(s string) string   { return colorize(colorDim, s) }

func colorize(code, s string) string {
	if !colorEnabled {
		return s
	}
	return fmt.Sprintf("%s%s%s", code, s, colorReset)
}
