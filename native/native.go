package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

const wasiModule = "wasi_snapshot_preview1"

// Config holds runtime limits for addons.
type Config struct {
	// MemoryLimitPages caps each addon's memory in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Func is the Go shape of an exported addon function.
type Func func(args ...float64) (any, error)

// Loader compiles and instantiates addons on one wazero runtime.
type Loader struct {
	runtime   wazero.Runtime
	instances []api.Module
	wasiDone  bool
	mu        sync.Mutex
}

// New creates a loader. cfg may be nil.
func New(ctx context.Context, cfg *Config) *Loader {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Loader{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}
}

// LoadAddon compiles code, instantiates it anonymously, and returns one Func
// per exported function.
func (l *Loader) LoadAddon(ctx context.Context, location string, code []byte) (map[string]any, error) {
	compiled, err := l.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", location, err)
	}

	if importsModule(compiled, wasiModule) {
		if err := l.initWASI(ctx); err != nil {
			return nil, err
		}
	}

	mod, err := l.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", location, err)
	}

	l.mu.Lock()
	l.instances = append(l.instances, mod)
	l.mu.Unlock()

	// Calls outlive the load that created them.
	callCtx := context.WithoutCancel(ctx)
	defs := compiled.ExportedFunctions()
	out := make(map[string]any, len(defs))
	for name, def := range defs {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			continue
		}
		out[name] = wrap(callCtx, name, fn, def.ParamTypes(), def.ResultTypes())
	}

	Logger().Debug("addon loaded",
		zap.String("location", location),
		zap.Int("functions", len(out)))
	return out, nil
}

// Close releases every instance and the runtime.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	l.instances = nil
	l.mu.Unlock()
	return l.runtime.Close(ctx)
}

func (l *Loader) initWASI(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.wasiDone || l.runtime.Module(wasiModule) != nil {
		l.wasiDone = true
		return nil
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, l.runtime); err != nil {
		return fmt.Errorf("instantiate WASI: %w", err)
	}
	l.wasiDone = true
	return nil
}

func importsModule(compiled wazero.CompiledModule, name string) bool {
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == name {
			return true
		}
	}
	return false
}

func wrap(ctx context.Context, name string, fn api.Function, params, results []api.ValueType) Func {
	return func(args ...float64) (any, error) {
		if len(args) != len(params) {
			return nil, fmt.Errorf("%s: expected %d arguments, got %d", name, len(params), len(args))
		}
		stack := make([]uint64, len(args))
		for i, a := range args {
			v, err := encode(params[i], a)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", name, i, err)
			}
			stack[i] = v
		}

		raw, err := fn.Call(ctx, stack...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		switch len(results) {
		case 0:
			return nil, nil
		case 1:
			return decode(results[0], raw[0])
		}
		out := make([]any, len(results))
		for i, t := range results {
			v, err := decode(t, raw[i])
			if err != nil {
				return nil, fmt.Errorf("%s: result %d: %w", name, i, err)
			}
			out[i] = v
		}
		return out, nil
	}
}

func encode(t api.ValueType, v float64) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		return api.EncodeI64(int64(v)), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		return api.EncodeF64(v), nil
	}
	return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
}

func decode(t api.ValueType, v uint64) (any, error) {
	switch t {
	case api.ValueTypeI32:
		return float64(api.DecodeI32(v)), nil
	case api.ValueTypeI64:
		return float64(int64(v)), nil
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v)), nil
	case api.ValueTypeF64:
		return api.DecodeF64(v), nil
	}
	return nil, fmt.Errorf("unsupported result type %s", api.ValueTypeName(t))
}
