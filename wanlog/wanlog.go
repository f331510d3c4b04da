/*
Copyright (C) 2026  WanXCodec Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package wanlog gives every package its own categorised logger, the
// "logging sink accepting categorised text messages" the core relies on
// as an external collaborator.
package wanlog

import (
	"os"

	"github.com/pion/logging"
)

// Factory is the process-wide logger factory. Replace it (e.g. in tests,
// or to raise verbosity) before any package-level logger is created.
var Factory logging.LoggerFactory = &logging.DefaultLoggerFactory{
	Writer:          os.Stderr,
	DefaultLogLevel: logging.LogLevelInfo,
	ScopeLevels:     map[string]logging.LogLevel{},
}

// Scoped returns a leveled logger for the named category, e.g. "xcodec",
// "coss", "pipe". Callers keep the returned handle: cmd/wanxcodecd holds
// one package-level logger, while each pipe.Endpoint and coss.Cache gets
// its own when constructed.
func Scoped(scope string) logging.LeveledLogger {
	return Factory.NewLogger(scope)
}
