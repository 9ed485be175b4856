// Package staged drives every state-mutating operation through the same
// control pattern: build, signal a checkpoint, submit, await
// confirmation. Checkpoints are emitted before the driver blocks so
// callers can render interim progress; a transaction already submitted to
// the network is not retractable, so cancellation after submission is a
// chain-level no-op.
package staged

import (
	"context"
	"fmt"
	"math/big"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/core/metrics"
)

// Stage is a point in a staged operation's lifecycle.
type Stage string

const (
	StageBuilt      Stage = "built"
	StageCheckpoint Stage = "checkpoint"
	StageSubmitted  Stage = "submitted"
	StageConfirmed  Stage = "confirmed"
	StageReverted   Stage = "reverted"
)

// Progress is one lifecycle notification of a running operation.
type Progress struct {
	OperationID uuid.UUID
	Operation   string
	Stage       Stage
	Label       string
	TxHash      common.Hash
	Receipt     *domain.Receipt
}

// ProgressFunc receives lifecycle notifications. Called synchronously;
// keep it cheap.
type ProgressFunc func(Progress)

// Message is one prepared transaction of a step.
type Message struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Step is one transaction of a staged operation. Skip, when set, lets a
// step drop out at run time (an already-sufficient allowance, for
// example).
type Step struct {
	Label string
	Skip  func(ctx context.Context) (bool, error)
	Build func(ctx context.Context) (Message, error)
}

// Operation is a short fixed sequence of steps: either act only, or
// approve then act. Never more; this bounds staged-operation duration
// and keeps cancellation reasoning simple.
type Operation struct {
	Name  string
	Steps []Step
}

// Submitter is the transaction-writing slice of the transport.
type Submitter interface {
	From() common.Address
	Send(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*domain.Receipt, error)
}

// Driver runs staged operations over a submitter.
type Driver struct {
	writer     Submitter
	onProgress ProgressFunc
	log        *logger.Logger
}

// NewDriver creates a driver. onProgress may be nil.
func NewDriver(writer Submitter, onProgress ProgressFunc) *Driver {
	return &Driver{
		writer:     writer,
		onProgress: onProgress,
		log:        logger.With("component", "staged.driver"),
	}
}

// Run executes the operation's steps in order, each fully confirmed
// before the next is submitted, and returns the receipt of the final
// step. A mined-but-failed transaction surfaces as RevertError carrying
// the receipt; the driver never resubmits or bumps gas.
func (d *Driver) Run(ctx context.Context, op Operation) (*domain.Receipt, error) {
	if len(op.Steps) == 0 || len(op.Steps) > 2 {
		return nil, fmt.Errorf("operation %s has %d steps, want 1 or 2", op.Name, len(op.Steps))
	}

	opID := uuid.New()
	log := d.log.With("operation", op.Name, "id", opID)

	var lastReceipt *domain.Receipt
	for _, step := range op.Steps {
		if step.Skip != nil {
			skip, err := step.Skip(ctx)
			if err != nil {
				d.outcome(op.Name, "build_failed")
				return nil, fmt.Errorf("operation %s, stage %q: %w", op.Name, step.Label, err)
			}
			if skip {
				log.Debug("step skipped", "stage", step.Label)
				continue
			}
		}

		msg, err := step.Build(ctx)
		if err != nil {
			d.outcome(op.Name, "build_failed")
			return nil, fmt.Errorf("operation %s, stage %q: %w", op.Name, step.Label, err)
		}
		d.emit(Progress{OperationID: opID, Operation: op.Name, Stage: StageBuilt, Label: step.Label})

		// Checkpoint before submission and confirmation, so callers can
		// tell which step they are waiting on.
		d.emit(Progress{OperationID: opID, Operation: op.Name, Stage: StageCheckpoint, Label: step.Label})

		txHash, err := d.writer.Send(ctx, msg.To, msg.Value, msg.Data)
		if err != nil {
			d.outcome(op.Name, "submit_failed")
			return nil, fmt.Errorf("operation %s, stage %q: %w", op.Name, step.Label, err)
		}
		d.emit(Progress{
			OperationID: opID, Operation: op.Name,
			Stage: StageSubmitted, Label: step.Label, TxHash: txHash,
		})
		log.Info("step submitted", "stage", step.Label, "tx", txHash.Hex())

		receipt, err := d.writer.WaitMined(ctx, txHash)
		if err != nil {
			d.outcome(op.Name, "confirm_failed")
			return nil, fmt.Errorf("operation %s, stage %q awaiting %s: %w",
				op.Name, step.Label, txHash.Hex(), err)
		}
		if receipt.Reverted() {
			d.emit(Progress{
				OperationID: opID, Operation: op.Name,
				Stage: StageReverted, Label: step.Label, TxHash: txHash, Receipt: receipt,
			})
			d.outcome(op.Name, "reverted")
			return nil, &domain.RevertError{Stage: step.Label, Receipt: receipt}
		}

		d.emit(Progress{
			OperationID: opID, Operation: op.Name,
			Stage: StageConfirmed, Label: step.Label, TxHash: txHash, Receipt: receipt,
		})
		log.Info("step confirmed", "stage", step.Label, "tx", txHash.Hex(), "block", receipt.BlockNumber)
		lastReceipt = receipt
	}

	if lastReceipt == nil {
		return nil, fmt.Errorf("operation %s: every step was skipped", op.Name)
	}

	d.outcome(op.Name, "confirmed")
	return lastReceipt, nil
}

func (d *Driver) emit(p Progress) {
	if d.onProgress != nil {
		d.onProgress(p)
	}
}

func (d *Driver) outcome(op, outcome string) {
	metrics.StagedOperationsTotal.WithLabelValues(op, outcome).Inc()
}
