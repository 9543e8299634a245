package backend

import "fmt"

// Kind tags how a backend call settled.
type Kind int

const (
	// Success means the backend answered and reported success.
	Success Kind = iota
	// ApplicationFailure means the backend answered but signalled failure,
	// through an error field or a non-success status.
	ApplicationFailure
	// TransportFailure covers network errors, rejected HTTP statuses and
	// bodies that could not be decoded.
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ApplicationFailure:
		return "application_failure"
	case TransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one backend call. Payload is only meaningful for
// Success, Message carries the server's text for Success and
// ApplicationFailure, and Err is set for TransportFailure.
type Outcome[T any] struct {
	Kind    Kind
	Payload T
	Message string
	Err     error
}

type (
	ChatOutcome   = Outcome[ChatResponse]
	StatusOutcome = Outcome[StatusReply]
	StoreOutcome  = Outcome[VectorStoreStatus]
)

func succeeded[T any](payload T, message string) Outcome[T] {
	return Outcome[T]{Kind: Success, Payload: payload, Message: message}
}

func rejected[T any](message string) Outcome[T] {
	return Outcome[T]{Kind: ApplicationFailure, Message: message}
}

func failed[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: TransportFailure, Err: err}
}
