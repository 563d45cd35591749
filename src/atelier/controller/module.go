package controller

import (
	"github.com/uber/atelier-sync/src/atelier/controller/connection"
	docsync "github.com/uber/atelier-sync/src/atelier/controller/doc-sync"
	localwatch "github.com/uber/atelier-sync/src/atelier/controller/local-watch"
	"github.com/uber/atelier-sync/src/atelier/controller/vfs"
	"go.uber.org/fx"
)

// Module provides every controller of the daemon.
var Module = fx.Options(
	connection.Module,
	docsync.Module,
	vfs.Module,
	localwatch.Module,
)
