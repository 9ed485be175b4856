package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/realitymod/internal/protocol/question"
)

var (
	statusProposalID string
	statusBatchPath  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the on-chain state of a proposal and its question",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusProposalID, "id", "", "proposal identifier")
	statusCmd.Flags().StringVar(&statusBatchPath, "batch", "", "JSON file with the proposal's transactions")
	_ = statusCmd.MarkFlagRequired("id")
	_ = statusCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	e, err := newEnv(ctx)
	if err != nil {
		fail("Failed to initialize", err)
	}
	defer e.Close()

	batch, err := loadBatch(statusBatchPath)
	if err != nil {
		fail("Failed to load batch", err)
	}

	reader := question.NewReader(e.caller)
	desc, err := reader.DescribeProposal(ctx, e.chainID, e.module, statusProposalID, batch)
	if err != nil {
		fail("Failed to describe proposal", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "proposal\t%s\n", desc.ProposalID)
	fmt.Fprintf(w, "question hash\t%s\n", desc.QuestionHash.Hex())
	if !desc.QuestionExists {
		fmt.Fprintln(w, "question\tnot yet proposed")
		_ = w.Flush()
		return
	}
	fmt.Fprintf(w, "question id\t%s\n", desc.QuestionID.Hex())
	fmt.Fprintf(w, "oracle\t%s\n", desc.Module.Oracle.Hex())
	fmt.Fprintf(w, "finalized\t%t\n", desc.Oracle.Finalized)
	fmt.Fprintf(w, "best answer\t%s\n", desc.Oracle.BestAnswer.Hex())
	fmt.Fprintf(w, "current bond\t%s\n", desc.Oracle.Bond)
	fmt.Fprintf(w, "approved\t%t\n", desc.Approved)
	if !desc.CooldownEnds.IsZero() {
		fmt.Fprintf(w, "cooldown ends\t%s\n", desc.CooldownEnds.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "expired\t%t\n", desc.Expired)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "#\tHASH\tEXECUTED\tEXECUTABLE")
	for i, tx := range desc.Transactions {
		fmt.Fprintf(w, "%d\t%s\t%t\t%t\n", i, tx.Hash.Hex(), tx.Executed, tx.Executable)
	}
	_ = w.Flush()
}
