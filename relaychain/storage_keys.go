package relaychain

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"
)

// Substrate storage keys are built from hashed identifiers: a module and
// item name each hashed with "twox128" and concatenated, followed by the
// map key hashed with whatever hasher the pallet declared for that item
// (almost always "blake2_128_concat" for the staking/system maps this
// daemon reads, which appends the unhashed key after the 16-byte digest
// so storage iteration stays possible).
//
// twox128 is two XXH64 digests of data, with seeds 0 and 1, concatenated
// little-endian — exactly what Substrate's `twox_128` specifies.
// github.com/OneOfOne/xxhash is XXH64 (unlike zeebo/xxh3, which is the
// unrelated XXH3 algorithm and cannot reproduce these digests regardless
// of how its input is seeded).
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	h0 := xxhash.Checksum64S(data, 0)
	h1 := xxhash.Checksum64S(data, 1)
	binary.LittleEndian.PutUint64(out[0:8], h0)
	binary.LittleEndian.PutUint64(out[8:16], h1)
	return out
}

func blake2b128Concat(key []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(key)
	digest := h.Sum(nil)
	return append(digest, key...)
}

// storageKey builds the full storage key for `module.item(mapKey)`.
func storageKey(module, item string, mapKey []byte) []byte {
	key := append(twox128([]byte(module)), twox128([]byte(item))...)
	if mapKey != nil {
		key = append(key, blake2b128Concat(mapKey)...)
	}
	return key
}

func stakingBondedKey(stash common.Hash) []byte {
	return storageKey("Staking", "Bonded", stash.Bytes())
}

func stakingLedgerKey(controller common.Hash) []byte {
	return storageKey("Staking", "Ledger", controller.Bytes())
}

func systemAccountKey(who common.Hash) []byte {
	return storageKey("System", "Account", who.Bytes())
}

func stakingSlashingSpansKey(stash common.Hash) []byte {
	return storageKey("Staking", "SlashingSpans", stash.Bytes())
}

func stakingNominatorsKey(stash common.Hash) []byte {
	return storageKey("Staking", "Nominators", stash.Bytes())
}

func stakingValidatorsKey(stash common.Hash) []byte {
	return storageKey("Staking", "Validators", stash.Bytes())
}

func stakingActiveEraKey() []byte {
	return storageKey("Staking", "ActiveEra", nil)
}
