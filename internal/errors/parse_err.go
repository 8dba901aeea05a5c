package errors

// GenerationParseError is returned when streamed model output cannot be
// parsed into a course structure. It carries the raw accumulated text so
// that operators can inspect what the model actually produced.
type GenerationParseError struct {
	message string
	raw     string
}

func NewGenerationParseError(msg string, raw string) *GenerationParseError {
	return &GenerationParseError{
		message: msg,
		raw:     raw,
	}
}

func (gpe *GenerationParseError) Error() string {
	return gpe.message
}

func (gpe *GenerationParseError) RawText() string {
	return gpe.raw
}

func (gpe *GenerationParseError) GenerationParse() {}
