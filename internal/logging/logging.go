// Package logging configures loggo for the storefront binaries.
package logging

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("storefront.logging")

// Setup applies a loggo configuration spec such as
// "<root>=INFO;storefront.queue=DEBUG".  An empty spec leaves the defaults.
func Setup(service, spec string) error {
	if spec == "" {
		return nil
	}
	if err := loggo.ConfigureLoggers(spec); err != nil {
		return errors.Annotatef(err, "configure loggers %q", spec)
	}
	logger.Debugf("%s logging configured: %s", service, loggo.LoggerInfo())
	return nil
}
