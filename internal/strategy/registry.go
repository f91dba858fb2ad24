package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownStrategy = errors.New("strategy not found")

// Spec describes a registered strategy.
type Spec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Splits      bool   `json:"splits"`
}

type entry struct {
	spec     Spec
	strategy Strategy
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]entry)
)

// Register adds s under s.Name(), replacing any previous entry.
func Register(s Strategy, description, source string) {
	_, splits := s.(Splitter)
	if t, ok := s.(*Table); ok {
		splits = t.Splits()
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Name()] = entry{
		spec:     Spec{Name: s.Name(), Description: description, Source: source, Splits: splits},
		strategy: s,
	}
}

// Get looks a strategy up by name.
func Get(name string) (Strategy, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return e.strategy, nil
}

// List returns all registered strategies sorted by name.
func List() []Spec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	specs := make([]Spec, 0, len(registry))
	for _, e := range registry {
		specs = append(specs, e.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func init() {
	Register(Classic{}, "stand on 17+, or 12+ against a dealer 7+", "builtin")
	Register(Stand17{}, "hit below 17, like the dealer", "builtin")
	Register(Basic{}, "stand on 17+, or 12+ against a dealer 2-6", "builtin")
	Register(Doubler{}, "basic, doubling 11, 10 against 2-9 and 9 against 3-6", "builtin")
	Register(SplitAware{}, "double, splitting aces and pairs whose rank-8 beats the dealer", "builtin")
}
