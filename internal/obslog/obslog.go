// Package obslog configures the package-global logrus logger once per
// process. Every workload binary calls Init first thing in main, before
// the init handshake, so even bootstrap failures are logged with the
// configured level and format.
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures logrus to write leveled, field-structured lines to
// stderr — stdout is reserved for the wire protocol. Verbosity comes
// from LOG_LEVEL ("debug", "warn", ...); it defaults to "info" when
// unset or unparseable.
func Init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		} else {
			logrus.WithField("LOG_LEVEL", raw).Warn("obslog: unrecognized level, defaulting to info")
		}
	}
	logrus.SetLevel(level)
}
