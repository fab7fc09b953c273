// Package star hosts fetched modules in a Starlark interpreter.
//
// Every evaluated script merges its top-level globals into one shared ambient
// namespace. A module is a Starlark def statement; its code text is the exact
// source of that statement, so it can be cached and materialized again later.
//
// Materialized code may refer to names it does not define. Names present in
// the ambient namespace are bound when the code is materialized; the others
// are looked up when they are called, so a def that calls a helper from its
// script materializes in a fresh process and works once the helper is loaded.
package star

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkjson"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Evaluator    = (*Environment)(nil)
	_ ports.Resolver     = (*Environment)(nil)
	_ ports.Materializer = (*Environment)(nil)
)

// fileOptions enables the dialect features module scripts are allowed to use.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// materializedFile prefixes the synthetic filenames of materialized code.
const materializedFile = "<materialized>"

// Environment is the shared ambient namespace of evaluated scripts.
type Environment struct {
	logger ports.Logger

	mu      sync.RWMutex
	globals starlark.StringDict
	// sources holds the text of evaluated scripts still referenced by a global.
	sources map[string]string

	seq atomic.Uint64
}

// New creates an empty Environment. Script output from print goes to logger.
func New(logger ports.Logger) *Environment {
	return &Environment{
		logger:  logger,
		globals: make(starlark.StringDict),
		sources: make(map[string]string),
	}
}

// Evaluate executes src and merges its globals into the ambient namespace.
// Globals already present are overwritten.
func (e *Environment) Evaluate(ctx context.Context, filename, src string) error {
	unique := e.uniqueName(filename)

	th, stop := e.thread(ctx, unique)
	defer stop()

	globals, err := starlark.ExecFileOptions(fileOptions, th, unique, src, e.predeclared())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEvaluateFailed.Error()), "file", filename)
	}

	e.mu.Lock()
	e.sources[unique] = src
	for name, v := range globals {
		e.globals[name] = v
	}
	e.pruneSourcesLocked()
	e.mu.Unlock()

	e.logger.Debug("evaluated script", "file", filename, "globals", len(globals))
	return nil
}

// Resolve resolves a dot-delimited path against the ambient namespace.
// Each segment after the first is an attribute or a string dict key.
func (e *Environment) Resolve(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")

	e.mu.RLock()
	v, ok := e.globals[parts[0]]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}

	for _, part := range parts[1:] {
		if v, ok = member(v, part); !ok {
			return nil, false
		}
	}
	return v, true
}

// Globals returns the sorted names of the ambient namespace.
func (e *Environment) Globals() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Materialize evaluates code in isolation and returns the single function it defines.
// The ambient namespace is visible to the code as predeclared names, and names
// missing from it resolve when called.
func (e *Environment) Materialize(code string) (domain.Callable, error) {
	unique := e.uniqueName(materializedFile)
	predeclared := e.predeclared()

	_, prog, err := starlark.SourceProgramOptions(fileOptions, unique, code, func(name string) bool {
		if predeclared.Has(name) {
			return true
		}
		if starlark.Universe.Has(name) {
			return false
		}
		predeclared[name] = e.lateBound(name)
		return true
	})
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMaterializeFailed.Error())
	}

	th, stop := e.thread(context.Background(), unique)
	defer stop()

	globals, err := prog.Init(th, predeclared)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMaterializeFailed.Error())
	}

	var fns []*starlark.Function
	for _, v := range globals {
		if fn, ok := v.(*starlark.Function); ok {
			fns = append(fns, fn)
		}
	}
	if len(fns) != 1 {
		return nil, zerr.With(domain.ErrNotCallable, "functions", len(fns))
	}

	return &Function{fn: fns[0], env: e, code: code}, nil
}

// Serialize returns the source text of the def statement of a resolved function.
func (e *Environment) Serialize(value any) (string, error) {
	var fn *starlark.Function
	switch v := value.(type) {
	case *starlark.Function:
		fn = v
	case *Function:
		return v.code, nil
	default:
		return "", zerr.With(domain.ErrNotCallable, "type", typeName(value))
	}
	if fn.Name() == "lambda" {
		return "", zerr.With(domain.ErrNotCallable, "type", "lambda")
	}

	pos := fn.Position()
	e.mu.RLock()
	src, ok := e.sources[pos.Filename()]
	e.mu.RUnlock()
	if !ok {
		return "", zerr.With(domain.ErrSerializeFailed, "function", fn.Name())
	}

	code, err := defSource(pos, src)
	if err != nil {
		return "", zerr.With(err, "function", fn.Name())
	}
	return code, nil
}

func (e *Environment) uniqueName(filename string) string {
	return fmt.Sprintf("%s#%d", filename, e.seq.Add(1))
}

// lateBound stands in for a name that is not defined when code is materialized.
// Calling it calls the ambient value of that name.
func (e *Environment) lateBound(name string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(
		th *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		e.mu.RLock()
		v, ok := e.globals[name]
		e.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("undefined: %s", name)
		}
		return starlark.Call(th, v, args, kwargs)
	})
}

// pruneSourcesLocked drops the text of scripts no ambient value refers to any more.
// e.mu must be held for writing.
func (e *Environment) pruneSourcesLocked() {
	live := make(map[string]struct{}, len(e.sources))
	seen := make(map[starlark.Value]struct{})
	for _, v := range e.globals {
		collectFiles(v, live, seen)
	}
	for name := range e.sources {
		if _, ok := live[name]; !ok {
			delete(e.sources, name)
		}
	}
}

// collectFiles records the files of the functions reachable from v.
// seen tracks mutable containers, which are the only values that can form cycles.
func collectFiles(v starlark.Value, files map[string]struct{}, seen map[starlark.Value]struct{}) {
	switch x := v.(type) {
	case *starlark.Function:
		files[x.Position().Filename()] = struct{}{}
	case starlark.Tuple:
		for _, item := range x {
			collectFiles(item, files, seen)
		}
	case *starlark.List:
		if visit(x, seen) {
			for i := range x.Len() {
				collectFiles(x.Index(i), files, seen)
			}
		}
	case *starlark.Dict:
		if visit(x, seen) {
			for _, item := range x.Items() {
				collectFiles(item[0], files, seen)
				collectFiles(item[1], files, seen)
			}
		}
	case *starlarkstruct.Module:
		if visit(x, seen) {
			for _, m := range x.Members {
				collectFiles(m, files, seen)
			}
		}
	case *starlarkstruct.Struct:
		if visit(x, seen) {
			for _, name := range x.AttrNames() {
				if m, err := x.Attr(name); err == nil {
					collectFiles(m, files, seen)
				}
			}
		}
	}
}

func visit(v starlark.Value, seen map[starlark.Value]struct{}) bool {
	if _, ok := seen[v]; ok {
		return false
	}
	seen[v] = struct{}{}
	return true
}

// predeclared returns the builtins together with a snapshot of the ambient namespace.
func (e *Environment) predeclared() starlark.StringDict {
	e.mu.RLock()
	defer e.mu.RUnlock()

	dict := make(starlark.StringDict, len(e.globals)+len(builtins))
	for name, v := range e.globals {
		dict[name] = v
	}
	for name, v := range builtins {
		dict[name] = v
	}
	return dict
}

// thread returns a thread cancelled when ctx is done. stop must be called when
// the thread is no longer used.
func (e *Environment) thread(ctx context.Context, name string) (*starlark.Thread, func() bool) {
	th := &starlark.Thread{
		Name: name,
		Print: func(th *starlark.Thread, msg string) {
			pos := th.CallFrame(1).Pos
			e.logger.Info(msg, "script", pos.Filename(), "line", pos.Line)
		},
	}
	stop := context.AfterFunc(ctx, func() {
		th.Cancel(context.Cause(ctx).Error())
	})
	return th, stop
}

var builtins = starlark.StringDict{
	"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	"module": starlark.NewBuiltin("module", starlarkstruct.MakeModule),
	"json":   starlarkjson.Module,
}

// member looks up name on v as an attribute or a string dict key.
func member(v starlark.Value, name string) (starlark.Value, bool) {
	switch x := v.(type) {
	case *starlark.Dict:
		m, found, err := x.Get(starlark.String(name))
		if err != nil || !found {
			return nil, false
		}
		return m, true
	case starlark.HasAttrs:
		m, err := x.Attr(name)
		if err != nil || m == nil {
			return nil, false
		}
		return m, true
	default:
		return nil, false
	}
}

func typeName(v any) string {
	if sv, ok := v.(starlark.Value); ok {
		return sv.Type()
	}
	return fmt.Sprintf("%T", v)
}
