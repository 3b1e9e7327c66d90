package delivery

// Outcome is the classified result of one delivery attempt, per SPEC_FULL
// §4.4's outcome table.
type Outcome struct {
	Status    Status
	Retryable bool
}

// Classify maps a raw Result to an Outcome. The caller decides whether a
// retryable outcome actually gets retried (attempts remaining).
func Classify(res Result) Outcome {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return Outcome{Status: StatusDelivered, Retryable: false}

	case res.StatusCode >= 400 && res.StatusCode < 500:
		// Client error: the destination told us plainly, further attempts
		// will not help.
		return Outcome{Status: StatusFailed, Retryable: false}

	case res.StatusCode >= 500:
		return Outcome{Status: StatusFailed, Retryable: true}

	case res.TimedOut:
		return Outcome{Status: StatusTimeout, Retryable: true}

	default:
		// No status received and not classified as a timeout: a transport
		// or connection error.
		return Outcome{Status: StatusFailed, Retryable: true}
	}
}
