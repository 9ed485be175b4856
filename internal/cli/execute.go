package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/realitymod/internal/protocol/hashing"
	"github.com/vietddude/realitymod/internal/protocol/question"
	"github.com/vietddude/realitymod/internal/protocol/staged"
)

var (
	executeID        string
	executeBatchPath string
	executeIndex     int
	executeAll       bool
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute an approved proposal's transactions",
	Long: `Execute an approved proposal's transactions, in batch order. A
transaction is only sent when the chain reports it executable: question
approved, cooldown elapsed, answer not expired, predecessors executed.`,
	Run: runExecute,
}

func init() {
	executeCmd.Flags().StringVar(&executeID, "id", "", "proposal identifier")
	executeCmd.Flags().StringVar(&executeBatchPath, "batch", "", "JSON file with the proposal's transactions")
	executeCmd.Flags().IntVar(&executeIndex, "index", -1, "single transaction index to execute")
	executeCmd.Flags().BoolVar(&executeAll, "all", false, "execute every pending executable transaction")
	_ = executeCmd.MarkFlagRequired("id")
	_ = executeCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(executeCmd)
}

func runExecute(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	e, err := newEnv(ctx)
	if err != nil {
		fail("Failed to initialize", err)
	}
	defer e.Close()

	if executeIndex < 0 && !executeAll {
		fail("Nothing to execute", fmt.Errorf("pass --index or --all"))
	}

	batch, err := loadBatch(executeBatchPath)
	if err != nil {
		fail("Failed to load batch", err)
	}
	hashes, err := hashing.HashBatch(e.chainID, e.module, batch)
	if err != nil {
		fail("Invalid transaction batch", err)
	}
	if executeIndex >= len(batch) {
		fail("Invalid index", fmt.Errorf("index %d out of range, batch has %d transactions", executeIndex, len(batch)))
	}

	writer, err := e.signer()
	if err != nil {
		fail("Failed to load signing key", err)
	}
	driver := e.driver(writer)
	reader := question.NewReader(e.caller)

	for {
		// Re-read eligibility before each send; an executed predecessor
		// unlocks the next transaction.
		desc, err := reader.DescribeProposal(ctx, e.chainID, e.module, executeID, batch)
		if err != nil {
			fail("Failed to describe proposal", err)
		}
		if !desc.QuestionExists {
			fail("Proposal unknown", fmt.Errorf("no question found for proposal %s", executeID))
		}

		next := -1
		for i, tx := range desc.Transactions {
			if executeIndex >= 0 && i != executeIndex {
				continue
			}
			if tx.Executable {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}

		op, err := staged.ExecuteTransaction(e.module, executeID, hashes, batch[next], next)
		if err != nil {
			fail("Failed to build execution", err)
		}
		receipt, err := driver.Run(ctx, op)
		if err != nil {
			fail(fmt.Sprintf("Execution of transaction %d failed", next), err)
		}
		slog.Info("transaction executed",
			"proposal", executeID,
			"index", next,
			"tx", receipt.TxHash.Hex(),
			"block", receipt.BlockNumber)

		if !executeAll {
			return
		}
	}

	if executeAll {
		slog.Info("no executable transactions remain", "proposal", executeID)
	} else {
		fail("Not executable", fmt.Errorf("transaction %d is not executable yet", executeIndex))
	}
}
