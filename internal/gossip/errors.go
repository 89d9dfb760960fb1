package gossip

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDecodeFailure matches every *DecodeError.
	ErrDecodeFailure = errors.New("gossip decode failure")
	// ErrUnknownTopics matches every *UnknownTopicsError.
	ErrUnknownTopics = errors.New("no known gossip topic")
)

// DecodeError is returned when a payload on a known topic does not decode.
// It means the sender violated the protocol.
type DecodeError struct {
	Topic string
	Kind  Kind
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s message from topic %s: %v", e.Kind, e.Topic, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailure }

// UnknownTopicsError is returned when none of a message's topics resolve.
// Topics lists all of them in the order given.
type UnknownTopicsError struct {
	Topics []string
}

func (e *UnknownTopicsError) Error() string {
	return fmt.Sprintf("no known gossip topic among [%s]", strings.Join(e.Topics, ", "))
}

func (e *UnknownTopicsError) Is(target error) bool { return target == ErrUnknownTopics }
