package handler

import (
	handler "github.com/uber/atelier-sync/src/atelier/handler/atelier-daemon"
	"go.uber.org/fx"
)

// Module provides the editor-facing API of the atelier daemon into an Fx application.
var Module = fx.Options(
	fx.Provide(handler.New),
	fx.Invoke(func(h handler.Handler) {}),
)
