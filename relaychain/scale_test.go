package relaychain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleDecoderCompact(t *testing.T) {
	tt := []struct {
		name     string
		buf      []byte
		expected int64
	}{
		{name: "single-byte mode", buf: []byte{0x04}, expected: 1},
		{name: "single-byte mode zero", buf: []byte{0x00}, expected: 0},
		{name: "two-byte mode", buf: []byte{0xfd, 0xff}, expected: 16383},
		{name: "four-byte mode", buf: []byte{0x02, 0x00, 0x00, 0x01}, expected: 1 << 22}, // mode bits 10
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			d := newScaleDecoder(tc.buf)
			v, err := d.Compact()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v.Int64())
		})
	}
}

func TestScaleDecoderOptionAndBool(t *testing.T) {
	d := newScaleDecoder([]byte{0x01, 0x00})

	present, err := d.OptionPresent()
	require.NoError(t, err)
	assert.True(t, present)

	b, err := d.Bool()
	require.NoError(t, err)
	assert.False(t, b)
}

func TestScaleDecoderUnderrun(t *testing.T) {
	d := newScaleDecoder([]byte{0x01})
	_, err := d.U32()
	assert.Error(t, err)
}

func TestDecodeBondedAbsent(t *testing.T) {
	controller, present, err := decodeBonded([]byte{0x00})
	require.NoError(t, err)
	assert.False(t, present)
	assert.Zero(t, controller)
}

func TestDecodeStakingLedgerEmptySequences(t *testing.T) {
	// present=true, stash=32 zero bytes, total=compact(0), active=compact(0),
	// unlocking len=compact(0), claimedRewards len=compact(0)
	buf := append([]byte{0x01}, make([]byte, 32)...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)

	ledger, err := decodeStakingLedger(buf)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.Equal(t, int64(0), ledger.Total.Int64())
	assert.Equal(t, int64(0), ledger.Active.Int64())
	assert.Empty(t, ledger.Unlocking)
	assert.Empty(t, ledger.ClaimedRewards)
}
