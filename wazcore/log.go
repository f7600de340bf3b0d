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

package wazcore

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// packageLogger is the process-wide default logger. Config.logger()
// (config.go) falls back to it whenever a Config is built without an
// explicit Logger, so an embedder can call SetLogger once at startup
// instead of threading a Logger through every Config it constructs.
var packageLogger atomic.Pointer[zap.Logger]

func init() {
	packageLogger.Store(zap.NewNop())
}

// SetLogger installs the process-wide default logger. Passing nil restores
// the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	packageLogger.Store(l)
}

// L returns the current process-wide default logger.
func L() *zap.Logger {
	return packageLogger.Load()
}
