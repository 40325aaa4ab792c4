package std

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/autocleanup/cleanup"
)

// NewRuntime creates a wazero runtime and registers it. Releasing the entry
// closes the runtime together with every module compiled or instantiated
// in it. A nil cfg uses wazero's defaults.
func NewRuntime(ctx context.Context, c *cleanup.Context, cfg wazero.RuntimeConfig) (wazero.Runtime, cleanup.Handle) {
	if cfg == nil {
		cfg = wazero.NewRuntimeConfig()
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	h := c.Register(rt, func(any) {
		if err := rt.Close(ctx); err != nil {
			cleanup.Logger().Warn("close runtime on release failed", zap.Error(err))
		}
	})
	return rt, h
}

// CompileModule compiles bin and registers the compiled module.
func CompileModule(ctx context.Context, c *cleanup.Context, rt wazero.Runtime, bin []byte) (wazero.CompiledModule, cleanup.Handle, error) {
	compiled, err := rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, 0, errors.Wrap(err, "compile module")
	}
	h := c.Register(compiled, func(any) {
		_ = compiled.Close(ctx)
	})
	return compiled, h, nil
}

// Instantiate instantiates compiled and registers the module instance.
func Instantiate(ctx context.Context, c *cleanup.Context, rt wazero.Runtime, compiled wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, cleanup.Handle, error) {
	if cfg == nil {
		cfg = wazero.NewModuleConfig()
	}
	mod, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "instantiate module")
	}
	h := c.Register(mod, func(any) {
		_ = mod.Close(ctx)
	})
	return mod, h, nil
}
