package plugins

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/0xReLogic/Greeter/internal/config"
)

// Middleware wraps a handler. The returned handler should call next to continue the chain.
type Middleware func(next http.Handler) http.Handler

// Env carries the values resolved at startup that plugins may serve.
type Env struct {
	Hostname string
}

// factory constructs a middleware from its configured name and settings.
type factory func(name string, cfg map[string]interface{}, env Env) (Middleware, error)

var builtins = map[string]factory{}

// RegisterBuiltin registers a built-in plugin factory
func RegisterBuiltin(name string, f factory) {
	if name == "" || f == nil {
		return
	}
	builtins[name] = f
}

// BuildChain wraps base with the configured plugins. The first listed plugin
// is the outermost wrapper.
func BuildChain(pc config.PluginsConfig, base http.Handler, env Env) (http.Handler, error) {
	if base == nil {
		return nil, errors.New("base handler is nil")
	}
	if !pc.Enabled || len(pc.Chain) == 0 {
		return base, nil
	}

	h := base
	for i := len(pc.Chain) - 1; i >= 0; i-- {
		p := pc.Chain[i]
		f, ok := builtins[p.Name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin: %s", p.Name)
		}
		mw, err := f(p.Name, p.Config, env)
		if err != nil {
			return nil, fmt.Errorf("plugin %s init failed: %w", p.Name, err)
		}
		h = mw(h)
	}
	return h, nil
}

// List returns the names of available built-in plugins in sorted order
func List() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
