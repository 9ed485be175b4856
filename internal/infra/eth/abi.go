package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the three contracts the engine talks to. Only
// the members the client actually calls are declared.

const moduleABIJSON = `[
	{"type":"function","name":"oracle","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"questionTimeout","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]},
	{"type":"function","name":"questionCooldown","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]},
	{"type":"function","name":"answerExpiration","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]},
	{"type":"function","name":"minimumBond","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"questionIds","stateMutability":"view","inputs":[{"name":"questionHash","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"executedProposalTransactions","stateMutability":"view","inputs":[{"name":"questionHash","type":"bytes32"},{"name":"txHash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"addProposal","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"string"},{"name":"txHashes","type":"bytes32[]"}],"outputs":[]},
	{"type":"function","name":"executeProposalWithIndex","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"string"},{"name":"txHashes","type":"bytes32[]"},{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"},{"name":"txIndex","type":"uint256"}],"outputs":[]}
]`

const oracleABIJSON = `[
	{"type":"function","name":"getBestAnswer","stateMutability":"view","inputs":[{"name":"question_id","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"isFinalized","stateMutability":"view","inputs":[{"name":"question_id","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getFinalizeTS","stateMutability":"view","inputs":[{"name":"question_id","type":"bytes32"}],"outputs":[{"name":"","type":"uint32"}]},
	{"type":"function","name":"getBond","stateMutability":"view","inputs":[{"name":"question_id","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getHistoryHash","stateMutability":"view","inputs":[{"name":"question_id","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"submitAnswer","stateMutability":"payable","inputs":[{"name":"question_id","type":"bytes32"},{"name":"answer","type":"bytes32"},{"name":"max_previous","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"submitAnswerERC20","stateMutability":"nonpayable","inputs":[{"name":"question_id","type":"bytes32"},{"name":"answer","type":"bytes32"},{"name":"max_previous","type":"uint256"},{"name":"tokens","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claimWinnings","stateMutability":"nonpayable","inputs":[{"name":"question_id","type":"bytes32"},{"name":"history_hashes","type":"bytes32[]"},{"name":"addrs","type":"address[]"},{"name":"bonds","type":"uint256[]"},{"name":"answers","type":"bytes32[]"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"event","name":"LogNewAnswer","anonymous":false,"inputs":[{"name":"answer","type":"bytes32","indexed":false},{"name":"question_id","type":"bytes32","indexed":true},{"name":"history_hash","type":"bytes32","indexed":false},{"name":"user","type":"address","indexed":true},{"name":"bond","type":"uint256","indexed":false},{"name":"ts","type":"uint256","indexed":false},{"name":"is_commitment","type":"bool","indexed":false}]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	// ModuleABI is the reality module contract interface.
	ModuleABI = mustParseABI(moduleABIJSON)
	// OracleABI is the dispute oracle contract interface.
	OracleABI = mustParseABI(oracleABIJSON)
	// ERC20ABI is the bond token contract interface.
	ERC20ABI = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return &parsed
}
