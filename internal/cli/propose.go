package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/realitymod/internal/protocol/hashing"
	"github.com/vietddude/realitymod/internal/protocol/staged"
)

var (
	proposeID        string
	proposeBatchPath string
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Submit a proposal's transaction batch and open its question",
	Run:   runPropose,
}

func init() {
	proposeCmd.Flags().StringVar(&proposeID, "id", "", "proposal identifier")
	proposeCmd.Flags().StringVar(&proposeBatchPath, "batch", "", "JSON file with the proposal's transactions")
	_ = proposeCmd.MarkFlagRequired("id")
	_ = proposeCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(proposeCmd)
}

func runPropose(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	e, err := newEnv(ctx)
	if err != nil {
		fail("Failed to initialize", err)
	}
	defer e.Close()

	batch, err := loadBatch(proposeBatchPath)
	if err != nil {
		fail("Failed to load batch", err)
	}

	hashes, err := hashing.HashBatch(e.chainID, e.module, batch)
	if err != nil {
		fail("Invalid transaction batch", err)
	}

	writer, err := e.signer()
	if err != nil {
		fail("Failed to load signing key", err)
	}

	op := staged.SubmitProposal(e.module, proposeID, hashes)
	receipt, err := e.driver(writer).Run(ctx, op)
	if err != nil {
		fail("Proposal submission failed", err)
	}

	slog.Info("proposal submitted",
		"proposal", proposeID,
		"transactions", len(hashes),
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber)
}
