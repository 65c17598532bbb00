package monitor

import (
	"os"

	"github.com/stvp/rollbar"
)

// ErrorReporter sends unexpected errors in the monitor to an external crash reporting
// service
type ErrorReporter interface {
	ReportError(err error)
}

type errorService struct{}

func init() {
	switch env := os.Getenv("environment"); env {
	case "development":
		rollbar.Environment = "development"
	default:
		rollbar.Environment = "production"
	}
	rollbar.Token = os.Getenv("PHIMON_ROLLBAR_TOKEN")
}

// ReportError will send the result of an unexpected error to Rollbar.  Data is anonymous.
func (e errorService) ReportError(err error) {
	if len(rollbar.Token) == 0 {
		return
	}
	rollbar.Error(rollbar.ERR, err)
}

// Wait blocks until queued reports have been sent
func (e errorService) Wait() {
	rollbar.Wait()
}

type noReports struct{}

func (noReports) ReportError(err error) {}

func newErrorReporter(c Config) ErrorReporter {
	if c.noErrorReports {
		return noReports{}
	}
	return errorService{}
}
