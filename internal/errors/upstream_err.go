package errors

type UpstreamError struct {
	message string
}

func NewUpstreamError(msg string) *UpstreamError {
	return &UpstreamError{
		message: msg,
	}
}

func (ue *UpstreamError) Error() string {
	return ue.message
}

func (ue *UpstreamError) Upstream() {}
