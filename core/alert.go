package core

// Alerter raises transient, dismissible user-facing notices.
// Every hook failure path raises one in addition to returning the error;
// successful mutations raise a Success notice.
type Alerter interface {
	Success(msg string)
	Info(title, msg string)
	Error(msg string)
}
