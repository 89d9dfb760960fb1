package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

type (
	// Slot is a beacon chain slot number.
	Slot uint64
	// Epoch is a beacon chain epoch number.
	Epoch uint64
	ValidatorIndex uint64
	CommitteeIndex uint64
)

const (
	RootLength      = 32
	SignatureLength = 96
	DigestLength    = 4
	GraffitiLength  = 32
)

// Root is a 32-byte object root.
type Root [RootLength]byte

// ZeroRoot is the root of nothing, used as the parent of genesis.
var ZeroRoot Root

func (r Root) String() string { return "0x" + hex.EncodeToString(r[:]) }

// Short returns an abbreviated form suitable for log lines.
func (r Root) Short() string { return hex.EncodeToString(r[:4]) }

func (r Root) IsZero() bool { return r == ZeroRoot }

func (r Root) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Root) UnmarshalText(text []byte) error {
	return decodeFixedHex(string(text), r[:])
}

// RootFromHex parses a 0x-prefixed (or bare) 64-character hex string.
func RootFromHex(s string) (Root, error) {
	var r Root
	err := decodeFixedHex(s, r[:])
	return r, err
}

// BLSSignature is a compressed BLS12-381 signature. Signatures are carried
// opaquely; nothing in this module verifies them.
type BLSSignature [SignatureLength]byte

func (s BLSSignature) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(s[:])), nil
}

func (s *BLSSignature) UnmarshalText(text []byte) error {
	return decodeFixedHex(string(text), s[:])
}

// ForkDigest identifies the fork a gossip topic belongs to.
type ForkDigest [DigestLength]byte

// String renders the digest the way it appears in gossip topics: eight
// lowercase hex characters without a prefix.
func (d ForkDigest) String() string { return hex.EncodeToString(d[:]) }

func (d ForkDigest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *ForkDigest) UnmarshalText(text []byte) error {
	return decodeFixedHex(string(text), d[:])
}

// ForkDigestFromHex parses an 8-character hex digest, with or without 0x.
func ForkDigestFromHex(s string) (ForkDigest, error) {
	var d ForkDigest
	err := decodeFixedHex(s, d[:])
	return d, err
}

// Graffiti is the free-form 32 bytes a proposer may put in a block.
type Graffiti [GraffitiLength]byte

func (g Graffiti) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(g[:])), nil
}

func (g *Graffiti) UnmarshalText(text []byte) error {
	return decodeFixedHex(string(text), g[:])
}

func decodeFixedHex(s string, dst []byte) error {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*len(dst) {
		return fmt.Errorf("expected %d hex characters, got %d", 2*len(dst), len(s))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}
