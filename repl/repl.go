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

// Package repl implements an interactive command loop for loading and
// poking at wazcore modules from a terminal.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/wazcore/wazcore/wazcore"
)

const prompt = ">> "
const defaultModuleName = "default"

var (
	errNoModuleInstantiated = errors.New("no module loaded; use LOAD first")
	errModuleNotFound       = errors.New("module not found")
)

// UsageError signals that a command handler was called with the wrong
// number or shape of arguments; run prints the command's usage instead of
// the raw error.
type UsageError struct{}

func (e *UsageError) Error() string { return "wrong command usage" }

func newUsageError() error { return &UsageError{} }

// Command pairs a handler with the usage string shown on error or HELP.
type Command struct {
	Usage   string
	Handler func(r *Repl, args []string) error
}

// Repl holds everything an interactive session needs: one Runtime, the
// named module instances loaded into it, which one is "active" for
// unqualified INVOKE/GET/MEM commands, and the dispatch table.
type Repl struct {
	runtime         *wazcore.Runtime
	moduleInstances map[string]*wazcore.ModuleInstance
	activeModule    string
	editor          *lineEditor
	commands        map[string]Command
}

// Config carries the resource limits an interactive session should give
// every module it loads.
type Config struct {
	Fuel              uint64
	EnableFuel        bool
	MaxCallStackDepth int
}

// NewRepl builds a Repl backed by a Runtime configured per cfg.
func NewRepl(cfg Config) *Repl {
	runtime := wazcore.NewRuntime().WithConfig(wazcore.Config{
		MaxCallStackDepth: cfg.MaxCallStackDepth,
		EnableFuel:        cfg.EnableFuel,
		Fuel:              cfg.Fuel,
	})
	r := &Repl{
		runtime:         runtime,
		moduleInstances: make(map[string]*wazcore.ModuleInstance),
		activeModule:    defaultModuleName,
		editor:          newLineEditor(),
	}
	r.commands = map[string]Command{
		"LOAD": {
			Usage:   "LOAD [<module-name>] <path-to-file | url>",
			Handler: (*Repl).handleInstantiate,
		},
		"USE": {
			Usage:   "USE <module-name>",
			Handler: (*Repl).handleUse,
		},
		"INVOKE": {
			Usage:   "INVOKE <function-name> [args...]",
			Handler: (*Repl).handleInvoke,
		},
		"GET": {
			Usage:   "GET <global-name>",
			Handler: (*Repl).handleGet,
		},
		"MEM": {
			Usage:   "MEM <offset> <length>",
			Handler: (*Repl).handleMem,
		},
		"LIST": {
			Usage:   "LIST",
			Handler: (*Repl).handleList,
		},
		"HELP": {
			Usage:   "HELP",
			Handler: (*Repl).handleHelp,
		},
		"CLEAR": {
			Usage:   "CLEAR",
			Handler: (*Repl).handleClear,
		},
		"QUIT": {
			Usage:   "QUIT",
			Handler: (*Repl).handleQuit,
		},
	}
	return r
}

// Start runs a Repl until EOF or QUIT, installing a Ctrl-C handler that
// exits cleanly rather than dumping a goroutine stack trace.
func Start(cfg Config) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nBye!")
		os.Exit(0)
	}()

	NewRepl(cfg).run()
}

func (r *Repl) run() {
	for {
		line, err := r.editor.readLine(prompt)
		if err != nil {
			if errors.Is(err, errInterrupted) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				fmt.Fprintln(os.Stderr, red(fmt.Sprintf("Error: %s", err)))
			}
			fmt.Println("Bye!")
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmdName := strings.ToUpper(parts[0])
		args := parts[1:]

		if cmd, ok := r.commands[cmdName]; ok {
			if err := cmd.Handler(r, args); err != nil {
				var usageErr *UsageError
				if errors.As(err, &usageErr) {
					fmt.Fprintln(os.Stderr, red(fmt.Sprintf("Usage: %s", cmd.Usage)))
				} else {
					fmt.Fprintln(os.Stderr, red(fmt.Sprintf("Error: %s", err)))
				}
			}
		} else {
			fmt.Fprintln(os.Stderr, red(fmt.Sprintf("Error: unknown command: %s", parts[0])))
		}
	}
}

func (r *Repl) handleInstantiate(args []string) error {
	var instanceName, source string
	switch len(args) {
	case 1:
		instanceName = defaultModuleName
		source = args[0]
	case 2:
		instanceName = args[0]
		source = args[1]
	default:
		return newUsageError()
	}

	if _, ok := r.moduleInstances[instanceName]; ok {
		return fmt.Errorf("module instance %q already exists", instanceName)
	}

	moduleReader, err := ResolveModule(source)
	if err != nil {
		return err
	}
	defer moduleReader.Close()

	instance, err := r.runtime.InstantiateModule(moduleReader)
	if err != nil {
		return err
	}
	r.moduleInstances[instanceName] = instance
	r.activeModule = instanceName
	fmt.Println(green(fmt.Sprintf("%q instantiated.", instanceName)))
	return nil
}

func (r *Repl) handleUse(args []string) error {
	if len(args) != 1 {
		return newUsageError()
	}
	if _, ok := r.moduleInstances[args[0]]; !ok {
		return errModuleNotFound
	}
	r.activeModule = args[0]
	return nil
}

func (r *Repl) handleInvoke(args []string) error {
	module, err := r.getActiveModule()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return newUsageError()
	}

	funcName := args[0]
	strArgs := args[1:]

	fn, err := getFunctionInstance(module, funcName)
	if err != nil {
		return err
	}
	params := fn.FuncType().Params
	if len(strArgs) != len(params) {
		return fmt.Errorf("invalid number of arguments for %s; expected %d, got %d", funcName, len(params), len(strArgs))
	}

	parsedArgs := make([]wazcore.Value, len(params))
	for i, paramType := range params {
		v, err := parseArg(strArgs[i], paramType)
		if err != nil {
			return err
		}
		parsedArgs[i] = v
	}

	results, err := module.Invoke(funcName, parsedArgs...)
	if err != nil {
		return err
	}
	for _, v := range results {
		fmt.Println(green(formatValue(v)))
	}
	return nil
}

func (r *Repl) handleGet(args []string) error {
	module, err := r.getActiveModule()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return newUsageError()
	}

	exp, ok := module.GetExport(args[0])
	if !ok {
		return fmt.Errorf("%q not found", args[0])
	}
	global, ok := exp.(*wazcore.Global)
	if !ok {
		return fmt.Errorf("%q is not a global", args[0])
	}
	fmt.Println(green(formatValue(global.Get())))
	return nil
}

func (r *Repl) handleMem(args []string) error {
	module, err := r.getActiveModule()
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return newUsageError()
	}

	offset, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid offset: %s", args[0])
	}
	length, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid length: %s", args[1])
	}

	mem := module.Memory()
	if mem == nil {
		return errors.New("module has no memory")
	}
	data, err := mem.Read(uint32(offset), uint32(length))
	if err != nil {
		return err
	}
	fmt.Println(data)
	return nil
}

func (r *Repl) handleList(args []string) error {
	for name, module := range r.moduleInstances {
		marker := " "
		if name == r.activeModule {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
		for _, exportName := range module.ExportNames() {
			fmt.Println(dim("    " + exportName))
		}
	}
	return nil
}

func (r *Repl) handleHelp(args []string) error {
	for _, cmd := range r.commands {
		fmt.Println(cmd.Usage)
	}
	return nil
}

func (r *Repl) handleClear(args []string) error {
	fmt.Print("\033[H\033[2J")
	r.moduleInstances = make(map[string]*wazcore.ModuleInstance)
	r.activeModule = defaultModuleName
	return nil
}

func (r *Repl) handleQuit(args []string) error {
	os.Exit(0)
	return nil
}

func (r *Repl) getActiveModule() (*wazcore.ModuleInstance, error) {
	if len(r.moduleInstances) == 0 {
		return nil, errNoModuleInstantiated
	}
	instance, ok := r.moduleInstances[r.activeModule]
	if !ok {
		return nil, fmt.Errorf("active module %q not found", r.activeModule)
	}
	return instance, nil
}

func getFunctionInstance(module *wazcore.ModuleInstance, name string) (wazcore.FunctionInstance, error) {
	exp, ok := module.GetExport(name)
	if !ok {
		return nil, fmt.Errorf("%q not found", name)
	}
	fn, ok := exp.(wazcore.FunctionInstance)
	if !ok {
		return nil, fmt.Errorf("%q is not a function", name)
	}
	return fn, nil
}

func parseArg(argStr string, paramType wazcore.ValueType) (wazcore.Value, error) {
	switch paramType {
	case wazcore.I32:
		v, err := strconv.ParseInt(argStr, 10, 32)
		if err != nil {
			return wazcore.Value{}, fmt.Errorf("failed to parse arg %s as i32: %w", argStr, err)
		}
		return wazcore.I32Value(int32(v)), nil
	case wazcore.I64:
		v, err := strconv.ParseInt(argStr, 10, 64)
		if err != nil {
			return wazcore.Value{}, fmt.Errorf("failed to parse arg %s as i64: %w", argStr, err)
		}
		return wazcore.I64Value(v), nil
	case wazcore.F32:
		v, err := strconv.ParseFloat(argStr, 32)
		if err != nil {
			return wazcore.Value{}, fmt.Errorf("failed to parse arg %s as f32: %w", argStr, err)
		}
		return wazcore.F32Value(float32(v)), nil
	case wazcore.F64:
		v, err := strconv.ParseFloat(argStr, 64)
		if err != nil {
			return wazcore.Value{}, fmt.Errorf("failed to parse arg %s as f64: %w", argStr, err)
		}
		return wazcore.F64Value(v), nil
	default:
		return wazcore.Value{}, fmt.Errorf("unsupported arg type: %v", paramType)
	}
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
