package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	"github.com/vietddude/realitymod/internal/protocol/staged"
)

var (
	answerQuestionID string
	answerValue      string
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Stake a bonded answer on a proposal's question",
	Long: `Stake a bonded answer on a proposal's question. The bond amount is
computed fresh from chain state: the question's current bond doubled, or
the opening amount when no answer has been staked yet. Token-backed
oracles get an allowance approval step first when needed.`,
	Run: runAnswer,
}

func init() {
	answerCmd.Flags().StringVar(&answerQuestionID, "question", "", "question id (32-byte hex)")
	answerCmd.Flags().StringVar(&answerValue, "answer", "", "answer: yes, no, invalid, or 32-byte hex")
	_ = answerCmd.MarkFlagRequired("question")
	_ = answerCmd.MarkFlagRequired("answer")
	rootCmd.AddCommand(answerCmd)
}

func parseAnswer(s string) (common.Hash, error) {
	switch strings.ToLower(s) {
	case "yes", "1":
		return common.BigToHash(big.NewInt(1)), nil
	case "no", "0":
		return common.BigToHash(big.NewInt(0)), nil
	case "invalid":
		// All-ones marks the question itself as invalid.
		var h common.Hash
		for i := range h {
			h[i] = 0xff
		}
		return h, nil
	}
	if strings.HasPrefix(s, "0x") {
		b, err := domain.ParseHexBytes(s)
		if err == nil && len(b) == 32 {
			return common.BytesToHash(b), nil
		}
	}
	return common.Hash{}, fmt.Errorf("unrecognized answer %q", s)
}

func runAnswer(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	e, err := newEnv(ctx)
	if err != nil {
		fail("Failed to initialize", err)
	}
	defer e.Close()

	answer, err := parseAnswer(answerValue)
	if err != nil {
		fail("Invalid answer", err)
	}
	questionID, err := parseQuestionID(answerQuestionID)
	if err != nil {
		fail("Invalid question id", err)
	}

	oracle, err := e.oracle(ctx)
	if err != nil {
		fail("Failed to resolve oracle", err)
	}
	out, err := e.caller.Read(ctx, eth.Call{To: e.module, ABI: eth.ModuleABI, Method: "minimumBond"})
	if err != nil {
		fail("Failed to read minimum bond", &domain.DependencyError{Dependency: domain.DependencyModule, Err: err})
	}
	minimumBond := eth.AsBigInt(out[0])

	writer, err := e.signer()
	if err != nil {
		fail("Failed to load signing key", err)
	}

	factory := staged.NewAnswerFactory(e.caller, e.prober, writer.From())
	op := factory.SubmitAnswer(oracle, questionID, answer, minimumBond)
	receipt, err := e.driver(writer).Run(ctx, op)
	if err != nil {
		fail("Answer submission failed", err)
	}

	slog.Info("answer submitted",
		"question", questionID.Hex(),
		"answer", answer.Hex(),
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber)
}
