package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/module-loader/loader"
	"github.com/wippyai/module-loader/native"
	"github.com/wippyai/module-loader/resolver"
)

// SetLogger installs l as the logger of every package that traces loads.
// This must be called before New.
func SetLogger(l *zap.Logger) {
	loader.SetLogger(l.Named("loader"))
	resolver.SetLogger(l.Named("resolver"))
	native.SetLogger(l.Named("native"))
}
