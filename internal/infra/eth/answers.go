package eth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/core/metrics"
)

// logNewAnswerSig is topic0 of the oracle's LogNewAnswer event.
var logNewAnswerSig = OracleABI.Events["LogNewAnswer"].ID

// ScanAnswers reads the oracle's answer events for one question from
// fromBlock to the chain head, oldest first. The log query is bounded to
// the same head that is returned, so an event mined while the scan runs
// is never both returned now and above the caller's persisted cursor.
func (c *Caller) ScanAnswers(
	ctx context.Context,
	oracle common.Address,
	questionID common.Hash,
	fromBlock uint64,
) ([]domain.AnswerEvent, uint64, error) {
	head, err := c.BlockNumber(ctx)
	if err != nil {
		return nil, 0, err
	}

	logs, err := c.FilterLogs(ctx, oracle, []any{
		logNewAnswerSig.Hex(),
		questionID.Hex(),
	}, fromBlock, head)
	if err != nil {
		return nil, 0, err
	}

	events := make([]domain.AnswerEvent, 0, len(logs))
	for _, entry := range logs {
		event, err := decodeAnswerLog(entry)
		if err != nil {
			return nil, 0, fmt.Errorf("decode answer log at block %d: %w", entry.BlockNumber, err)
		}
		events = append(events, event)
	}

	metrics.AnswerEventsScanned.WithLabelValues(c.client.Network()).Add(float64(len(events)))
	return events, head, nil
}

func decodeAnswerLog(entry domain.Log) (domain.AnswerEvent, error) {
	if len(entry.Topics) < 3 {
		return domain.AnswerEvent{}, fmt.Errorf("expected 3 topics, got %d", len(entry.Topics))
	}

	out, err := OracleABI.Unpack("LogNewAnswer", entry.Data)
	if err != nil {
		return domain.AnswerEvent{}, err
	}
	// Non-indexed fields, declaration order: answer, history_hash, bond,
	// ts, is_commitment.
	if len(out) != 5 {
		return domain.AnswerEvent{}, fmt.Errorf("expected 5 data fields, got %d", len(out))
	}

	return domain.AnswerEvent{
		QuestionID:  entry.Topics[1],
		User:        common.BytesToAddress(entry.Topics[2].Bytes()),
		Answer:      AsHash(out[0]),
		HistoryHash: AsHash(out[1]),
		Bond:        AsBigInt(out[2]),
		Timestamp:   AsBigInt(out[3]).Uint64(),
		BlockNumber: entry.BlockNumber,
		LogIndex:    entry.Index,
		TxHash:      entry.TxHash,
	}, nil
}
