package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/realitymod/internal/core/domain"
)

// AnswerRepo archives scanned answer events per network. Events are
// append-only on chain, so rows are only ever inserted, never updated.
// It implements claim.Archive.
type AnswerRepo struct {
	db      *DB
	network string
}

// NewAnswerRepo creates an archive scoped to one network.
func NewAnswerRepo(db *DB, network string) *AnswerRepo {
	return &AnswerRepo{db: db, network: network}
}

type answerRow struct {
	QuestionID  string `db:"question_id"`
	BlockNumber int64  `db:"block_number"`
	LogIndex    int64  `db:"log_index"`
	TxHash      string `db:"tx_hash"`
	UserAddr    string `db:"user_addr"`
	Answer      string `db:"answer"`
	HistoryHash string `db:"history_hash"`
	Bond        string `db:"bond"`
	AnsweredAt  int64  `db:"answered_at"`
}

// Load returns the archived events for a question in emission order, plus
// the block the next scan should start from.
func (r *AnswerRepo) Load(
	ctx context.Context,
	questionID common.Hash,
) ([]domain.AnswerEvent, uint64, bool, error) {
	var nextBlock int64
	err := r.db.GetContext(ctx, &nextBlock,
		`SELECT next_block FROM scan_cursors WHERE network = $1 AND question_id = $2`,
		r.network, questionID.Hex())
	if err == sql.ErrNoRows {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to load scan cursor: %w", err)
	}

	var rows []answerRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT question_id, block_number, log_index, tx_hash, user_addr, answer, history_hash, bond, answered_at
		 FROM answer_events
		 WHERE network = $1 AND question_id = $2
		 ORDER BY block_number, log_index`,
		r.network, questionID.Hex())
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to load answer events: %w", err)
	}

	events := make([]domain.AnswerEvent, 0, len(rows))
	for _, row := range rows {
		bond, ok := new(big.Int).SetString(row.Bond, 10)
		if !ok {
			return nil, 0, false, fmt.Errorf("corrupt bond %q for question %s", row.Bond, row.QuestionID)
		}
		events = append(events, domain.AnswerEvent{
			QuestionID:  common.HexToHash(row.QuestionID),
			User:        common.HexToAddress(row.UserAddr),
			HistoryHash: common.HexToHash(row.HistoryHash),
			Bond:        bond,
			Answer:      common.HexToHash(row.Answer),
			Timestamp:   uint64(row.AnsweredAt),
			BlockNumber: uint64(row.BlockNumber),
			LogIndex:    uint(row.LogIndex),
			TxHash:      common.HexToHash(row.TxHash),
		})
	}
	return events, uint64(nextBlock), true, nil
}

// Store appends freshly scanned events and advances the scan cursor in one
// transaction. Replaying an already-stored event is a no-op.
func (r *AnswerRepo) Store(
	ctx context.Context,
	questionID common.Hash,
	events []domain.AnswerEvent,
	scannedTo uint64,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO answer_events
			   (network, question_id, block_number, log_index, tx_hash, user_addr, answer, history_hash, bond, answered_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (network, question_id, block_number, log_index) DO NOTHING`,
			r.network, questionID.Hex(), int64(e.BlockNumber), int64(e.LogIndex),
			e.TxHash.Hex(), e.User.Hex(), e.Answer.Hex(), e.HistoryHash.Hex(),
			e.Bond.String(), int64(e.Timestamp))
		if err != nil {
			return fmt.Errorf("failed to store answer event: %w", err)
		}
	}

	// The next scan resumes after the last scanned block.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scan_cursors (network, question_id, next_block, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (network, question_id) DO UPDATE
		   SET next_block = GREATEST(scan_cursors.next_block, EXCLUDED.next_block),
		       updated_at = EXCLUDED.updated_at`,
		r.network, questionID.Hex(), int64(scannedTo+1), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to advance scan cursor: %w", err)
	}

	return tx.Commit()
}
