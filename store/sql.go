// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/pollcast/models"
)

// SQLStore implements Store on PostgreSQL or SQLite through database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open connection whose schema has been created with
// db.CreateSchema.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const pollColumns = `id, question, description, creator, is_active, expires_at,
	allow_multiple_votes, total_votes, category, tags, created_at, updated_at`

func (s *SQLStore) CreatePoll(ctx context.Context, poll models.Poll) error {
	tags, err := json.Marshal(poll.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapSQLErr("begin create poll", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (`+pollColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, poll.ID, poll.Question, poll.Description, poll.Creator, poll.IsActive, nullTime(poll.ExpiresAt),
		poll.AllowMultipleVotes, poll.TotalVotes, poll.Category, string(tags),
		poll.CreatedAt.UTC(), poll.UpdatedAt.UTC())
	if err != nil {
		return wrapSQLErr("insert poll", err)
	}

	for i, opt := range poll.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, position, text, votes)
			VALUES ($1, $2, $3, $4)
		`, poll.ID, i, opt.Text, opt.Votes)
		if err != nil {
			return wrapSQLErr("insert poll option", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapSQLErr("commit create poll", err)
	}
	return nil
}

func (s *SQLStore) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	return getPoll(ctx, s.db, id)
}

func getPoll(ctx context.Context, q queryer, id string) (models.Poll, error) {
	row := q.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM poll WHERE id = $1`, id)
	poll, err := scanPoll(row)
	if err != nil {
		return models.Poll{}, wrapSQLErr("get poll", err)
	}

	options, err := loadOptions(ctx, q, []string{id})
	if err != nil {
		return models.Poll{}, err
	}
	poll.Options = options[id]
	return poll, nil
}

func (s *SQLStore) ListPolls(ctx context.Context, filter models.PollFilter) ([]models.Poll, int, error) {
	var conds []string
	var args []any
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapSQLErr("count polls", err)
	}

	pageArgs := append(args, filter.Limit, filter.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM poll%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		pollColumns, where, len(args)+1, len(args)+2,
	), pageArgs...)
	if err != nil {
		return nil, 0, wrapSQLErr("list polls", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	var ids []string
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, 0, wrapSQLErr("scan poll", err)
		}
		polls = append(polls, poll)
		ids = append(ids, poll.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapSQLErr("list polls", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return polls, total, nil
	}

	options, err := loadOptions(ctx, s.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range polls {
		polls[i].Options = options[polls[i].ID]
	}
	return polls, total, nil
}

func (s *SQLStore) UpdatePoll(ctx context.Context, id string, update models.PollUpdate, now time.Time) (models.Poll, error) {
	sets := []string{"updated_at = $1"}
	args := []any{now.UTC()}
	if update.Question != nil {
		args = append(args, *update.Question)
		sets = append(sets, fmt.Sprintf("question = $%d", len(args)))
	}
	if update.Description != nil {
		args = append(args, *update.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if update.IsActive != nil {
		args = append(args, *update.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if update.ExpiresAt != nil {
		args = append(args, update.ExpiresAt.UTC())
		sets = append(sets, fmt.Sprintf("expires_at = $%d", len(args)))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE poll SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args),
	), args...)
	if err != nil {
		return models.Poll{}, wrapSQLErr("update poll", err)
	}
	if err := requireRow(res, "update poll"); err != nil {
		return models.Poll{}, err
	}

	return s.GetPoll(ctx, id)
}

func (s *SQLStore) DeactivatePoll(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll SET is_active = FALSE, updated_at = $1 WHERE id = $2
	`, now.UTC(), id)
	if err != nil {
		return wrapSQLErr("deactivate poll", err)
	}
	return requireRow(res, "deactivate poll")
}

func (s *SQLStore) DeletePoll(ctx context.Context, id string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapSQLErr("begin delete poll", err)
	}
	defer tx.Rollback()

	// Votes and options go first so the delete does not depend on the
	// driver honouring ON DELETE CASCADE.
	res, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE poll_id = $1`, id)
	if err != nil {
		return 0, wrapSQLErr("delete votes", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, wrapSQLErr("delete votes", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_option WHERE poll_id = $1`, id); err != nil {
		return 0, wrapSQLErr("delete poll options", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM poll WHERE id = $1`, id)
	if err != nil {
		return 0, wrapSQLErr("delete poll", err)
	}
	if err := requireRow(res, "delete poll"); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapSQLErr("commit delete poll", err)
	}
	return deleted, nil
}

func (s *SQLStore) RecordVote(ctx context.Context, vote models.Vote, unique bool) (models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, wrapSQLErr("begin record vote", err)
	}
	defer tx.Rollback()

	var key sql.NullString
	if k := VoterKey(vote.VoterID, unique); k != nil {
		key = sql.NullString{String: *k, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, option_index, voter_id, voter_key, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, vote.ID, vote.PollID, vote.OptionIndex, vote.VoterID, key,
		nullString(vote.Origin.IPHash), nullString(vote.Origin.UserAgent), vote.Timestamp.UTC())
	if err != nil {
		return models.Poll{}, wrapSQLErr("insert vote", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE poll_option SET votes = votes + 1 WHERE poll_id = $1 AND position = $2
	`, vote.PollID, vote.OptionIndex)
	if err != nil {
		return models.Poll{}, wrapSQLErr("increment option", err)
	}
	if err := requireRow(res, "increment option"); err != nil {
		return models.Poll{}, err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE poll SET total_votes = total_votes + 1 WHERE id = $1
	`, vote.PollID)
	if err != nil {
		return models.Poll{}, wrapSQLErr("increment total", err)
	}
	if err := requireRow(res, "increment total"); err != nil {
		return models.Poll{}, err
	}

	poll, err := getPoll(ctx, tx, vote.PollID)
	if err != nil {
		return models.Poll{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, wrapSQLErr("commit vote", err)
	}
	return poll, nil
}

func (s *SQLStore) LatestVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, poll_id, option_index, voter_id, created_at
		FROM vote
		WHERE poll_id = $1 AND voter_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, pollID, voterID)

	vote, err := scanVote(row)
	if err == sql.ErrNoRows {
		return models.Vote{}, false, nil
	}
	if err != nil {
		return models.Vote{}, false, wrapSQLErr("latest vote", err)
	}
	return vote, true, nil
}

func (s *SQLStore) ListVotes(ctx context.Context, pollID string, page, limit int) ([]models.Vote, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&total)
	if err != nil {
		return nil, 0, wrapSQLErr("count votes", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, option_index, voter_id, created_at
		FROM vote
		WHERE poll_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, pollID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, wrapSQLErr("list votes", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, 0, wrapSQLErr("scan vote", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapSQLErr("list votes", err)
	}
	return votes, total, nil
}

func (s *SQLStore) Stats(ctx context.Context, pollID string) (models.VoteStats, error) {
	stats := models.VoteStats{PollID: pollID, VotesByOption: []models.OptionCount{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT voter_id) FROM vote WHERE poll_id = $1
	`, pollID).Scan(&stats.TotalVotes, &stats.UniqueVoters)
	if err != nil {
		return models.VoteStats{}, wrapSQLErr("count votes", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT option_index, COUNT(*)
		FROM vote
		WHERE poll_id = $1
		GROUP BY option_index
		ORDER BY option_index
	`, pollID)
	if err != nil {
		return models.VoteStats{}, wrapSQLErr("votes by option", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.OptionCount
		if err := rows.Scan(&c.OptionIndex, &c.Votes); err != nil {
			return models.VoteStats{}, wrapSQLErr("scan option count", err)
		}
		stats.VotesByOption = append(stats.VotesByOption, c)
	}
	if err := rows.Err(); err != nil {
		return models.VoteStats{}, wrapSQLErr("votes by option", err)
	}
	return stats, nil
}

// Helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanPoll(row scanner) (models.Poll, error) {
	var p models.Poll
	var expiresAt sql.NullTime
	var tags string
	err := row.Scan(&p.ID, &p.Question, &p.Description, &p.Creator, &p.IsActive, &expiresAt,
		&p.AllowMultipleVotes, &p.TotalVotes, &p.Category, &tags, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Poll{}, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		p.ExpiresAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	p.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return models.Poll{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return p, nil
}

func scanVote(row scanner) (models.Vote, error) {
	var v models.Vote
	if err := row.Scan(&v.ID, &v.PollID, &v.OptionIndex, &v.VoterID, &v.Timestamp); err != nil {
		return models.Vote{}, err
	}
	v.Timestamp = v.Timestamp.UTC()
	return v, nil
}

// loadOptions returns the options of each poll in ids, ordered by position.
func loadOptions(ctx context.Context, q queryer, ids []string) (map[string][]models.Option, error) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT poll_id, text, votes
		FROM poll_option
		WHERE poll_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY poll_id, position
	`, args...)
	if err != nil {
		return nil, wrapSQLErr("load options", err)
	}
	defer rows.Close()

	options := make(map[string][]models.Option, len(ids))
	for rows.Next() {
		var pollID string
		var opt models.Option
		if err := rows.Scan(&pollID, &opt.Text, &opt.Votes); err != nil {
			return nil, wrapSQLErr("scan option", err)
		}
		options[pollID] = append(options[pollID], opt)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapSQLErr("load options", err)
	}
	return options, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapSQLErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
