package hooks

import (
	"fmt"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// TengoExecutor runs Tengo scripts registered per hook type.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates an executor without scripts.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the script registered for hookType. Scripts see the context
// as the variables indexKey, indexKind, indexLocation and updatedAt (RFC 3339)
// plus every entry of ctx.Vars. A script fails by setting err.
func (e *TengoExecutor) Execute(hookType HookType, ctx Context) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	s := tengo.NewScript([]byte(script))
	s.SetImports(stdlib.GetModuleMap("fmt", "os", "strings", "time", "text"))

	vars := map[string]interface{}{
		"indexKey":      ctx.IndexKey,
		"indexKind":     ctx.IndexKind,
		"indexLocation": ctx.IndexLocation,
		"updatedAt":     formatTime(ctx.UpdatedAt),
	}
	for k, v := range ctx.Vars {
		vars[k] = v
	}
	for name, value := range vars {
		if err := s.Add(name, value); err != nil {
			return fmt.Errorf("failed to add variable '%s' to script: %w", name, err)
		}
	}

	compiled, err := s.Run()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, errutils.ErrHookExecution, err)
	}

	switch v := compiled.Get("err").Value().(type) {
	case error:
		return fmt.Errorf("%s: %w: %w", hookType, errutils.ErrHookScript, v)
	case string:
		if v != "" {
			return fmt.Errorf("%s: %w: %s", hookType, errutils.ErrHookScript, v)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// AddScript adds or replaces the script for hookType.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// RemoveScript removes the script for hookType.
func (e *TengoExecutor) RemoveScript(hookType HookType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript reports whether a script is registered for hookType.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
