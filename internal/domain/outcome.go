package domain

// Outcome is the classified result of a single publish attempt.
type Outcome struct {
	Success    bool
	StatusCode int

	// AckIDs holds the message ids acknowledged by the endpoint. Nil when
	// the response carried none.
	AckIDs []string

	// Message is the diagnostic for a failure, or the raw body when a
	// success response carried no ids.
	Message string

	// Err is set when the body looked like JSON but failed to decode.
	Err *ClassificationError
}
