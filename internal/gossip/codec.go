package gossip

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/beaconkit/beacond/types"
)

var errNilMessage = errors.New("message carries no object")

// DecodeMessage decodes a payload delivered under one or more topics.
//
// Topics are tried in order and the first one that parses decides how the
// payload is decoded; the rest are ignored. A payload that does not decode
// under that topic fails with a *DecodeError, even if a later topic would
// have accepted it. If no topic parses the error is an *UnknownTopicsError
// listing all of them.
func DecodeMessage(topics []string, payload []byte) (Message, error) {
	unknown := make([]string, 0, len(topics))
	for _, s := range topics {
		topic, err := ParseTopic(s)
		if err != nil {
			unknown = append(unknown, s)
			continue
		}
		return decode(topic, s, payload)
	}
	return nil, &UnknownTopicsError{Topics: unknown}
}

func decode(topic Topic, raw string, payload []byte) (Message, error) {
	fail := func(err error) (Message, error) {
		return nil, &DecodeError{Topic: raw, Kind: topic.Kind, Err: err}
	}

	we, err := lookupEncoding(topic.Encoding)
	if err != nil {
		return fail(err)
	}
	bz, err := we.decode(payload)
	if err != nil {
		return fail(err)
	}

	msg := newMessage(topic)
	if msg == nil {
		return fail(fmt.Errorf("no decoder for kind %s", topic.Kind))
	}
	if err := msg.object().UnmarshalSSZ(bz); err != nil {
		return fail(err)
	}
	return msg, nil
}

// EncodeMessage serializes msg for publishing with the given encoding.
func EncodeMessage(msg Message, enc Encoding) ([]byte, error) {
	we, err := lookupEncoding(enc)
	if err != nil {
		return nil, err
	}
	if isNil(msg) || isNil(msg.object()) {
		return nil, errNilMessage
	}
	bz, err := msg.object().MarshalSSZ()
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", msg.Kind(), err)
	}
	return we.encode(bz)
}

// TopicFor returns the topic msg is published on.
func TopicFor(msg Message, digest types.ForkDigest, enc Encoding) Topic {
	if att, ok := msg.(*AttestationMessage); ok {
		return NewAttestationTopic(digest, att.Subnet, enc)
	}
	return NewTopic(digest, msg.Kind(), enc)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
