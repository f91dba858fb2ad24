package scripting

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/strategy"
)

// Compiled is a script strategy frozen into a lookup table, with whatever
// the script logged while it ran.
type Compiled struct {
	Table *strategy.Table
	Logs  []LogEntry
}

// Compile runs source and evaluates its decide(total, dealer, doubled)
// function over the whole decision space. An optional split(rank, dealer)
// function enables pair splitting. The resulting table no longer touches
// the JS runtime, so it can be shared between workers.
func Compile(name, source string) (*Compiled, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: strategy name is required", ErrScript)
	}

	vm := NewVM()
	if err := vm.Execute(source); err != nil {
		return nil, err
	}

	decide, ok, err := vm.function("decide")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: decide() function is not defined", ErrScript)
	}
	split, hasSplit, err := vm.function("split")
	if err != nil {
		return nil, err
	}

	table := strategy.NewTable(name)
	err = vm.runWithTimeout(scriptSweepTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		rt := vm.runtime
		for total := 2; total <= 21; total++ {
			for dealer := 2; dealer <= 11; dealer++ {
				for _, doubled := range []bool{false, true} {
					v, err := decide(goja.Undefined(), rt.ToValue(total), rt.ToValue(dealer), rt.ToValue(doubled))
					if err != nil {
						return fmt.Errorf("%w: decide(%d, %d, %v): %w", ErrScript, total, dealer, doubled, err)
					}
					d, err := strategy.ParseDecision(v.String())
					if err != nil {
						return fmt.Errorf("%w: decide(%d, %d, %v) returned %s", ErrScript, total, dealer, doubled, v)
					}
					table.Set(total, dealer, doubled, d)
				}
			}
		}

		if !hasSplit {
			return nil
		}
		for rank := games.MinRank; rank <= games.MaxRank; rank++ {
			for dealer := 2; dealer <= 11; dealer++ {
				v, err := split(goja.Undefined(), rt.ToValue(int(rank)), rt.ToValue(dealer))
				if err != nil {
					return fmt.Errorf("%w: split(%d, %d): %w", ErrScript, rank, dealer, err)
				}
				table.SetSplit(rank, dealer, v.ToBoolean())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Compiled{Table: table, Logs: vm.GetLogs()}, nil
}

// Register compiles source and adds it to the strategy registry.
func Register(name, source string) (*Compiled, error) {
	c, err := Compile(name, source)
	if err != nil {
		return nil, err
	}
	strategy.Register(c.Table, "user script", "script")
	return c, nil
}
