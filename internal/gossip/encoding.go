package gossip

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// MaxGossipSize bounds the SSZ payload of a single gossip message, before
// compression is applied or after it is removed.
const MaxGossipSize = 1 << 20

// Encoding is the wire encoding suffix of a topic.
type Encoding string

const (
	EncodingSSZ       Encoding = "ssz"
	EncodingSSZSnappy Encoding = "ssz_snappy"
)

// ErrUnsupportedEncoding is returned when encoding with an unregistered
// Encoding.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

var errPayloadTooLarge = errors.New("payload exceeds gossip size limit")

// wireEncoding turns SSZ bytes into wire bytes and back.
type wireEncoding interface {
	encode(raw []byte) ([]byte, error)
	decode(wire []byte) ([]byte, error)
}

// encodings is the set of supported wire encodings. A topic with an
// encoding missing here does not parse.
var encodings = map[Encoding]wireEncoding{
	EncodingSSZ:       sszEncoding{},
	EncodingSSZSnappy: snappyEncoding{},
}

// Encodings lists the supported encodings.
func Encodings() []Encoding {
	return []Encoding{EncodingSSZ, EncodingSSZSnappy}
}

// ParseEncoding returns the supported Encoding named s.
func ParseEncoding(s string) (Encoding, error) {
	if _, err := lookupEncoding(Encoding(s)); err != nil {
		return "", err
	}
	return Encoding(s), nil
}

func lookupEncoding(enc Encoding) (wireEncoding, error) {
	we, ok := encodings[enc]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(enc))
	}
	return we, nil
}

type sszEncoding struct{}

func (sszEncoding) encode(raw []byte) ([]byte, error) {
	if len(raw) > MaxGossipSize {
		return nil, errPayloadTooLarge
	}
	return raw, nil
}

func (sszEncoding) decode(wire []byte) ([]byte, error) {
	if len(wire) > MaxGossipSize {
		return nil, errPayloadTooLarge
	}
	return wire, nil
}

// snappyEncoding is SSZ compressed with the snappy block format.
type snappyEncoding struct{}

func (snappyEncoding) encode(raw []byte) ([]byte, error) {
	if len(raw) > MaxGossipSize {
		return nil, errPayloadTooLarge
	}
	return snappy.Encode(nil, raw), nil
}

func (snappyEncoding) decode(wire []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(wire)
	if err != nil {
		return nil, err
	}
	if n > MaxGossipSize {
		return nil, errPayloadTooLarge
	}
	return snappy.Decode(nil, wire)
}
