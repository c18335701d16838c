package relaychain

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// scaleDecoder walks a SCALE-encoded byte buffer. It implements only the
// subset of the codec needed to read the staking pallet storage items this
// daemon consumes: fixed-width integers, compact integers, Option, bytes,
// and sequences of the above. It does not attempt to be a general SCALE
// library.
type scaleDecoder struct {
	buf []byte
	pos int
}

func newScaleDecoder(buf []byte) *scaleDecoder {
	return &scaleDecoder{buf: buf}
}

func (d *scaleDecoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *scaleDecoder) take(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, fmt.Errorf("relaychain: scale buffer underrun: need %d, have %d", n, d.remaining())
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *scaleDecoder) byte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool decodes a SCALE-encoded bool: 0x00 false, 0x01 true.
func (d *scaleDecoder) Bool() (bool, error) {
	b, err := d.byte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, fmt.Errorf("relaychain: invalid scale bool byte 0x%x", b)
	}
}

// OptionPresent reads the Option<T> discriminant byte, returning whether a
// value follows.
func (d *scaleDecoder) OptionPresent() (bool, error) {
	return d.Bool()
}

// U32 decodes a fixed-width little-endian u32.
func (d *scaleDecoder) U32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 decodes a fixed-width little-endian u64.
func (d *scaleDecoder) U64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// AccountID decodes a 32-byte account identifier.
func (d *scaleDecoder) AccountID() (common.Hash, error) {
	b, err := d.take(32)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

// Compact decodes a SCALE compact-encoded unsigned integer into a big.Int;
// balances and era indices in the staking pallet are compact-encoded.
func (d *scaleDecoder) Compact() (*big.Int, error) {
	first, err := d.byte()
	if err != nil {
		return nil, err
	}
	mode := first & 0b11
	switch mode {
	case 0b00:
		return big.NewInt(int64(first >> 2)), nil
	case 0b01:
		second, err := d.byte()
		if err != nil {
			return nil, err
		}
		v := uint16(first>>2) | uint16(second)<<6
		return big.NewInt(int64(v)), nil
	case 0b10:
		rest, err := d.take(3)
		if err != nil {
			return nil, err
		}
		v := uint32(first>>2) | uint32(rest[0])<<6 | uint32(rest[1])<<14 | uint32(rest[2])<<22
		return big.NewInt(int64(v)), nil
	default: // 0b11: big-integer mode, length prefix in the upper 6 bits
		numBytes := int(first>>2) + 4
		raw, err := d.take(numBytes)
		if err != nil {
			return nil, err
		}
		le := make([]byte, len(raw))
		for i, b := range raw {
			le[len(raw)-1-i] = b
		}
		return new(big.Int).SetBytes(le), nil
	}
}

// CompactLen decodes a compact-encoded length prefix (used ahead of
// sequences) and returns it as an int.
func (d *scaleDecoder) CompactLen() (int, error) {
	n, err := d.Compact()
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
