// Package ironlog holds the engine-wide structured logger, threaded
// through every package that reports a non-fatal load or runtime
// warning. Defaults to logrus's standard logger; cmd/ironmarch
// overrides it with one configured from CLI flags.
package ironlog

import "github.com/sirupsen/logrus"

// Logger is the package-level sink every loader/system logs through.
// Swap it before running any scenario load if custom output or level
// filtering is needed.
var Logger logrus.FieldLogger = logrus.StandardLogger()
