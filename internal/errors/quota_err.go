package errors

type QuotaError struct {
	message string
	kind    string
}

func NewStorageQuotaError(msg string) *QuotaError {
	return &QuotaError{
		message: msg,
		kind:    "storage",
	}
}

func NewTokenQuotaError(msg string) *QuotaError {
	return &QuotaError{
		message: msg,
		kind:    "tokens",
	}
}

func (qe *QuotaError) Error() string {
	return qe.message
}

func (qe *QuotaError) Kind() string {
	return qe.kind
}

func (qe *QuotaError) QuotaExceeded() {}
