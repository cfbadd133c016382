package entity

type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "VALIDATION_ERROR"
	ErrorKindTimeout    ErrorKind = "TIMEOUT"
	ErrorKindService    ErrorKind = "SERVICE_ERROR"
	ErrorKindNetwork    ErrorKind = "NETWORK_ERROR"
	ErrorKindUnknown    ErrorKind = "UNKNOWN_ERROR"
)

// ErrorInfo is a classified failure shown to the user. Status is the HTTP status
// of the detection service response, zero when none arrived.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func (e *ErrorInfo) Is(target error) bool {
	t, ok := target.(*ErrorInfo)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}
