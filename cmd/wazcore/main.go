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

// Command wazcore loads and runs WebAssembly modules from the command line.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wazcore/wazcore/repl"
	"github.com/wazcore/wazcore/wazcore"
)

var (
	fuel              uint64
	enableFuel        bool
	maxCallStackDepth int
	verbose           bool
)

func main() {
	root := &cobra.Command{
		Use:   "wazcore",
		Short: "A WebAssembly execution core",
	}
	root.PersistentFlags().Uint64Var(&fuel, "fuel", 0, "instruction budget; 0 disables metering")
	root.PersistentFlags().IntVar(&maxCallStackDepth, "max-call-depth", 1000, "call stack depth limit")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log call and trap activity")

	root.AddCommand(newLoadCmd(), newInvokeCmd(), newReplCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <module.wasm>",
		Short: "Instantiate a module and run its start function, then exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime := buildRuntime()
			f, err := repl.ResolveModule(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = runtime.InstantiateModule(f)
			return err
		},
	}
}

func newInvokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <module.wasm> <function> [args...]",
		Short: "Instantiate a module and invoke one exported function",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime := buildRuntime()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			inst, err := runtime.InstantiateModule(f)
			if err != nil {
				return err
			}

			exp, ok := inst.GetExport(args[1])
			if !ok {
				return fmt.Errorf("no export named %q", args[1])
			}
			fn, ok := exp.(wazcore.FunctionInstance)
			if !ok {
				return fmt.Errorf("export %q is not a function", args[1])
			}

			params := fn.FuncType().Params
			rawArgs := args[2:]
			if len(rawArgs) != len(params) {
				return fmt.Errorf("%s expects %d arguments, got %d", args[1], len(params), len(rawArgs))
			}
			callArgs := make([]wazcore.Value, len(params))
			for i, p := range params {
				v, err := parseValue(rawArgs[i], p)
				if err != nil {
					return err
				}
				callArgs[i] = v
			}

			results, err := inst.Invoke(args[1], callArgs...)
			if err != nil {
				return err
			}
			for _, v := range results {
				fmt.Println(formatValue(v))
			}
			return nil
		},
	}
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			repl.Start(repl.Config{
				Fuel:              fuel,
				EnableFuel:        fuel > 0,
				MaxCallStackDepth: maxCallStackDepth,
			})
			return nil
		},
	}
}

func buildRuntime() *wazcore.Runtime {
	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	return wazcore.NewRuntime().WithConfig(wazcore.Config{
		MaxCallStackDepth:          maxCallStackDepth,
		CallStackPreallocationSize: 1000,
		EnableFuel:                 fuel > 0,
		Fuel:                       fuel,
		Logger:                     logger,
	})
}

func formatValue(v wazcore.Value) string {
	switch v.Type {
	case wazcore.I32:
		return strconv.FormatInt(int64(v.I32()), 10)
	case wazcore.I64:
		return strconv.FormatInt(v.I64(), 10)
	case wazcore.F32:
		return strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	case wazcore.F64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	case wazcore.FuncRefType, wazcore.ExternRefType:
		if v.IsNull() {
			return "null"
		}
		return fmt.Sprintf("ref(%d)", v.RefIndex())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseValue(s string, t wazcore.ValueType) (wazcore.Value, error) {
	switch t {
	case wazcore.I32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return wazcore.Value{}, err
		}
		return wazcore.I32Value(int32(v)), nil
	case wazcore.I64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return wazcore.Value{}, err
		}
		return wazcore.I64Value(v), nil
	case wazcore.F32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return wazcore.Value{}, err
		}
		return wazcore.F32Value(float32(v)), nil
	case wazcore.F64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return wazcore.Value{}, err
		}
		return wazcore.F64Value(v), nil
	default:
		return wazcore.Value{}, fmt.Errorf("unsupported argument type: %v", t)
	}
}
