package hashing

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// questionSeparator joins the proposal id and its hash list in the
// question encoding. U+241F, the unit-separator symbol; chosen by the
// module contract, not by us.
const questionSeparator = "␟"

// BuildQuestion encodes (proposalID, hashes) into the dispute question
// text. The encoding must be reproducible byte-for-byte by any
// independent verifier: proposalID, U+241F, then the 0x-prefixed
// lowercase hex hashes joined by commas.
func BuildQuestion(proposalID string, hashes []common.Hash) string {
	hex := make([]string, len(hashes))
	for i, h := range hashes {
		hex[i] = h.Hex()
	}
	return proposalID + questionSeparator + strings.Join(hex, ",")
}

// HashQuestion content-addresses a question string. The module keys its
// question registry by this digest.
func HashQuestion(question string) common.Hash {
	return crypto.Keccak256Hash([]byte(question))
}
