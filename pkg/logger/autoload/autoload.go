// Package autoload configures the global logger from LOG_* env vars as a
// side effect of being imported. Blank-import it from main.
package autoload

import (
	logx "github.com/hyeonjae-dev/voiceorder/pkg/logger"
)

func init() {
	logx.InitFromEnv()
}
