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

import "go.uber.org/zap"

// Config controls the behavior and resource limits of the VM.
type Config struct {
	// MaxCallStackDepth is the hard limit on call stack depth, guarding
	// against runaway recursion. Default: 1000.
	MaxCallStackDepth int

	// CallStackPreallocationSize sizes the initial capacity of the value
	// stack, avoiding growth allocations for typical call depths.
	// Default: 1000.
	CallStackPreallocationSize int

	// EnableFuel turns on instruction metering: the interpreter decrements
	// Fuel by one for every dispatched opcode and traps with TrapOutOfFuel
	// once it reaches zero. Default: false.
	EnableFuel bool

	// Fuel is the initial fuel budget. Only consulted when EnableFuel is
	// true. One unit of fuel equals one dispatched instruction.
	Fuel uint64

	// Logger receives structured diagnostics (call entry, host calls, trap
	// propagation). A nil Logger falls back to the process-wide default set
	// by SetLogger, which is a no-op logger unless one was installed, so the
	// VM is silent by default.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with sensible defaults and a no-op logger.
func DefaultConfig() Config {
	return Config{
		MaxCallStackDepth:          1000,
		CallStackPreallocationSize: 1000,
		Logger:                     zap.NewNop(),
	}
}

// logger returns the Config's own Logger if set, falling back to the
// process-wide default installed via SetLogger (log.go) so a VM built
// without an explicit Logger still picks up an embedder's global setting.
func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return L()
}
