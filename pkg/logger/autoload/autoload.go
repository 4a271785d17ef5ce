// Package autoload initializes the global logger from the LOG_* environment
// on import:
//
//	import _ "github.com/thanarat/shopagent/pkg/logger/autoload"
package autoload

import (
	configx "github.com/thanarat/shopagent/pkg/config"
	logx "github.com/thanarat/shopagent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
