// Package wire implements the canonical wire-format integer decoding shared
// by the entry binder for both table entries and action invocations (§6):
// big-endian, minimum-length, leading zeros tolerated, zero-length means
// zero, negative values are not representable.
package wire

import (
	"math/big"

	"github.com/jafingerhut/p4-constraints/pkg/errs"
)

// DecodeInteger decodes a canonical big-endian byte string into a
// non-negative *big.Int, rejecting values whose bit length exceeds
// bitWidth (an MSB past bitWidth being nonzero). A zero-length byte string
// decodes to zero.
func DecodeInteger(bytes []byte, bitWidth uint) (*big.Int, error) {
	value := new(big.Int).SetBytes(bytes)

	if uint(value.BitLen()) > bitWidth {
		return nil, errs.NewInputError("value %s does not fit declared bitwidth %d", value, bitWidth)
	}

	return value, nil
}

// EncodeInteger renders value as a canonical minimum-length big-endian byte
// string. value must be non-negative. Provided for symmetry with
// DecodeInteger and for tests that round-trip wire values; the evaluator
// itself never re-encodes.
func EncodeInteger(value *big.Int) []byte {
	if value.Sign() == 0 {
		return []byte{}
	}

	return value.Bytes()
}
