package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/realitymod/internal/infra/storage/postgres"
	"github.com/vietddude/realitymod/internal/protocol/claim"
	"github.com/vietddude/realitymod/internal/protocol/staged"
)

var claimQuestionID string

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim won bonds from a finalized question",
	Long: `Claim won bonds from a finalized question. The answer history is
reconstructed from oracle events (accelerated by the archive when
configured) and handed back to the oracle in claim order.`,
	Run: runClaim,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the accumulated oracle balance",
	Run:   runWithdraw,
}

func init() {
	claimCmd.Flags().StringVar(&claimQuestionID, "question", "", "question id (32-byte hex)")
	_ = claimCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(withdrawCmd)
}

func runClaim(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	e, err := newEnv(ctx)
	if err != nil {
		fail("Failed to initialize", err)
	}
	defer e.Close()

	writer, err := e.signer()
	if err != nil {
		fail("Failed to load signing key", err)
	}
	oracle, err := e.oracle(ctx)
	if err != nil {
		fail("Failed to resolve oracle", err)
	}
	questionID, err := parseQuestionID(claimQuestionID)
	if err != nil {
		fail("Invalid question id", err)
	}

	var archive claim.Archive
	if e.db != nil {
		archive = postgres.NewAnswerRepo(e.db, e.network.Name)
	}
	svc := claim.NewService(e.caller, e.caller, archive, e.prober, e.network.StartBlock)

	comp, err := svc.Compute(ctx, oracle, questionID, writer.From())
	if err != nil {
		fail("Failed to compute claim", err)
	}
	if !comp.CanClaim {
		switch {
		case comp.AlreadyClaimed:
			fail("Nothing to claim", fmt.Errorf("winnings already claimed for question %s", questionID.Hex()))
		default:
			fail("Nothing to claim", fmt.Errorf("no claimable bonds for question %s", questionID.Hex()))
		}
	}

	driver := e.driver(writer)
	if comp.AnsweredCorrectly && !comp.AlreadyClaimed {
		op := staged.ClaimWinnings(oracle, questionID, comp.Bundle)
		receipt, err := driver.Run(ctx, op)
		if err != nil {
			fail("Claim failed", err)
		}
		slog.Info("winnings claimed",
			"question", questionID.Hex(),
			"answers", comp.Bundle.Len(),
			"asset", comp.Asset.Symbol,
			"tx", receipt.TxHash.Hex())
	}

	// Claiming credits the oracle-internal balance; pull it out too.
	receipt, err := driver.Run(ctx, staged.Withdraw(oracle))
	if err != nil {
		fail("Withdraw failed", err)
	}
	slog.Info("balance withdrawn", "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)
}

func runWithdraw(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	e, err := newEnv(ctx)
	if err != nil {
		fail("Failed to initialize", err)
	}
	defer e.Close()

	writer, err := e.signer()
	if err != nil {
		fail("Failed to load signing key", err)
	}
	oracle, err := e.oracle(ctx)
	if err != nil {
		fail("Failed to resolve oracle", err)
	}

	receipt, err := e.driver(writer).Run(ctx, staged.Withdraw(oracle))
	if err != nil {
		fail("Withdraw failed", err)
	}
	slog.Info("balance withdrawn", "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)
}
