package gateway

import (
	editorclient "github.com/uber/atelier-sync/src/atelier/gateway/editor-client"
	"github.com/uber/atelier-sync/src/atelier/gateway/transport"
	"go.uber.org/fx"
)

// Module provides the outbound connections: the Atelier transport towards servers and the notifier towards editors.
var Module = fx.Options(
	transport.Module,
	editorclient.Module,
)
