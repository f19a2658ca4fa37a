package alertsvc

import (
	"log"

	"github.com/agridesk/portal/core"
)

// consoleAlerter writes user notices to the standard logger. The API layer
// carries notices to clients; this keeps them visible in server output too.
type consoleAlerter struct {
	std *log.Logger
}

var _ core.Alerter = (*consoleAlerter)(nil)

func NewConsoleAlerter(std *log.Logger) *consoleAlerter {
	return &consoleAlerter{std: std}
}

func (a consoleAlerter) Success(msg string) {
	a.std.Printf("alert.success: %s\n", msg)
}

func (a consoleAlerter) Info(title, msg string) {
	a.std.Printf("alert.info: %s: %s\n", title, msg)
}

func (a consoleAlerter) Error(msg string) {
	a.std.Printf("alert.error: %s\n", msg)
}
