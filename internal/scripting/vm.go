package scripting

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

var ErrScript = errors.New("script error")

// LogEntry represents a single log message from the script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM wraps a goja runtime with sandbox restrictions. A VM is used by one
// goroutine at a time.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int
}

const (
	scriptInitTimeout  = 2 * time.Second
	scriptSweepTimeout = 2 * time.Second
)

// NewVM creates a sandboxed goja runtime with log and decision constants.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: 500,
	}
	vm.injectGlobalFunctions()
	injectConstants(vm.runtime)
	return vm
}

func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// Block dangerous globals.
	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

func injectConstants(rt *goja.Runtime) {
	rt.Set("STAND", "stand")
	rt.Set("HIT", "hit")
	rt.Set("DOUBLE", "double")
	rt.Set("BLACKJACK_STAND", "stand")
	rt.Set("BLACKJACK_HIT", "hit")
	rt.Set("BLACKJACK_DOUBLE", "double")
	rt.Set("ACE", 1)
}

// Execute runs script source once to define its functions.
func (vm *VM) Execute(source string) error {
	return vm.runWithTimeout(scriptInitTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("%w: execution: %w", ErrScript, err)
		}
		return nil
	})
}

// function looks up a global function; ok is false when it is not defined.
func (vm *VM) function(name string) (goja.Callable, bool, error) {
	fn := vm.runtime.Get(name)
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return nil, false, nil
	}
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s is not a function", ErrScript, name)
	}
	return callable, true, nil
}

// GetLogs returns a copy of the current log buffer.
func (vm *VM) GetLogs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// Interrupt a runaway script execution.
		vm.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("%w: timed out: %w", ErrScript, err)
			}
			return fmt.Errorf("%w: timed out", ErrScript)
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("%w: timed out", ErrScript)
		}
	}
}
