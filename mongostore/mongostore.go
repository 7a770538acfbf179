// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// compensateTimeout bounds the cleanup of a vote whose tally update failed.
const compensateTimeout = 5 * time.Second

type optionDoc struct {
	Text  string `bson:"text"`
	Votes int    `bson:"votes"`
}

type pollDoc struct {
	ID                 string      `bson:"_id"`
	Question           string      `bson:"question"`
	Description        string      `bson:"description"`
	Options            []optionDoc `bson:"options"`
	Creator            string      `bson:"creator"`
	IsActive           bool        `bson:"isActive"`
	ExpiresAt          *time.Time  `bson:"expiresAt"`
	AllowMultipleVotes bool        `bson:"allowMultipleVotes"`
	TotalVotes         int         `bson:"totalVotes"`
	Category           string      `bson:"category"`
	Tags               []string    `bson:"tags"`
	CreatedAt          time.Time   `bson:"createdAt"`
	UpdatedAt          time.Time   `bson:"updatedAt"`
}

type voteDoc struct {
	ID          string    `bson:"_id"`
	PollID      string    `bson:"pollId"`
	OptionIndex int       `bson:"optionIndex"`
	VoterID     string    `bson:"voterId"`
	VoterKey    *string   `bson:"voterKey"`
	IPHash      string    `bson:"ipHash,omitempty"`
	UserAgent   string    `bson:"userAgent,omitempty"`
	Timestamp   time.Time `bson:"timestamp"`
}

// Store implements store.Store on MongoDB. Polls embed their options; votes
// live in their own collection.
type Store struct {
	client *mongo.Client
	polls  *mongo.Collection
	votes  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, verifies the connection and ensures indexes on the
// named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := New(client.Database(database))
	s.client = client

	if err := s.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New builds a Store on an existing database handle. Close is a no-op for
// stores built this way.
func New(db *mongo.Database) *Store {
	return &Store{
		polls: db.Collection("polls"),
		votes: db.Collection("votes"),
	}
}

// EnsureIndexes creates the listing indexes and the partial unique index
// that rejects repeat votes on single-vote polls.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.polls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create poll indexes: %w", err)
	}

	_, err = s.votes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pollId", Value: 1}, {Key: "voterKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_poll_voter").
				SetPartialFilterExpression(bson.M{"voterKey": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "pollId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "pollId", Value: 1}, {Key: "voterId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create vote indexes: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) CreatePoll(ctx context.Context, poll models.Poll) error {
	if _, err := s.polls.InsertOne(ctx, toPollDoc(poll)); err != nil {
		return wrapErr("insert poll", err)
	}
	return nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	var doc pollDoc
	if err := s.polls.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return models.Poll{}, wrapErr("get poll", err)
	}
	return doc.model(), nil
}

func (s *Store) ListPolls(ctx context.Context, filter models.PollFilter) ([]models.Poll, int, error) {
	query := bson.M{}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	total, err := s.polls.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, wrapErr("count polls", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit))

	cursor, err := s.polls.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, wrapErr("list polls", err)
	}

	var docs []pollDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, wrapErr("list polls", err)
	}

	polls := make([]models.Poll, 0, len(docs))
	for _, doc := range docs {
		polls = append(polls, doc.model())
	}
	return polls, int(total), nil
}

func (s *Store) UpdatePoll(ctx context.Context, id string, update models.PollUpdate, now time.Time) (models.Poll, error) {
	set := bson.M{"updatedAt": now.UTC()}
	if update.Question != nil {
		set["question"] = *update.Question
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.IsActive != nil {
		set["isActive"] = *update.IsActive
	}
	if update.ExpiresAt != nil {
		set["expiresAt"] = update.ExpiresAt.UTC()
	}

	var doc pollDoc
	err := s.polls.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return models.Poll{}, wrapErr("update poll", err)
	}
	return doc.model(), nil
}

func (s *Store) DeactivatePoll(ctx context.Context, id string, now time.Time) error {
	res, err := s.polls.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": now.UTC()}})
	if err != nil {
		return wrapErr("deactivate poll", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("deactivate poll: %w", store.ErrNotFound)
	}
	return nil
}

// DeletePoll removes the poll first so no new vote can be tallied against
// it, then sweeps its votes.
func (s *Store) DeletePoll(ctx context.Context, id string) (int64, error) {
	res, err := s.polls.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapErr("delete poll", err)
	}
	if res.DeletedCount == 0 {
		return 0, fmt.Errorf("delete poll: %w", store.ErrNotFound)
	}

	votes, err := s.votes.DeleteMany(ctx, bson.M{"pollId": id})
	if err != nil {
		return 0, wrapErr("delete votes", err)
	}
	return votes.DeletedCount, nil
}

// RecordVote inserts the vote, then increments the tallies with a single
// atomic update. If the increment fails the vote is deleted again, so the
// ledger never holds a vote the tallies do not count.
func (s *Store) RecordVote(ctx context.Context, vote models.Vote, unique bool) (models.Poll, error) {
	doc := voteDoc{
		ID:          vote.ID,
		PollID:      vote.PollID,
		OptionIndex: vote.OptionIndex,
		VoterID:     vote.VoterID,
		VoterKey:    store.VoterKey(vote.VoterID, unique),
		IPHash:      vote.Origin.IPHash,
		UserAgent:   vote.Origin.UserAgent,
		Timestamp:   vote.Timestamp.UTC(),
	}
	if _, err := s.votes.InsertOne(ctx, doc); err != nil {
		return models.Poll{}, wrapErr("insert vote", err)
	}

	option := fmt.Sprintf("options.%d", vote.OptionIndex)
	filter := bson.M{"_id": vote.PollID, option: bson.M{"$exists": true}}
	update := bson.M{"$inc": bson.M{option + ".votes": 1, "totalVotes": 1}}

	var updated pollDoc
	err := s.polls.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
		defer cancel()
		if _, derr := s.votes.DeleteOne(cctx, bson.M{"_id": doc.ID}); derr != nil {
			return models.Poll{}, errors.Join(wrapErr("increment tallies", err),
				fmt.Errorf("remove untallied vote %s: %w", doc.ID, derr))
		}
		return models.Poll{}, wrapErr("increment tallies", err)
	}
	return updated.model(), nil
}

func (s *Store) LatestVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	var doc voteDoc
	err := s.votes.FindOne(ctx, bson.M{"pollId": pollID, "voterId": voterID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Vote{}, false, nil
	}
	if err != nil {
		return models.Vote{}, false, wrapErr("latest vote", err)
	}
	return doc.model(), true, nil
}

func (s *Store) ListVotes(ctx context.Context, pollID string, page, limit int) ([]models.Vote, int, error) {
	query := bson.M{"pollId": pollID}

	total, err := s.votes.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, wrapErr("count votes", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"ipHash": 0, "userAgent": 0})

	cursor, err := s.votes.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, wrapErr("list votes", err)
	}

	var docs []voteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, wrapErr("list votes", err)
	}

	votes := make([]models.Vote, 0, len(docs))
	for _, doc := range docs {
		votes = append(votes, doc.model())
	}
	return votes, int(total), nil
}

func (s *Store) Stats(ctx context.Context, pollID string) (models.VoteStats, error) {
	query := bson.M{"pollId": pollID}
	stats := models.VoteStats{PollID: pollID, VotesByOption: []models.OptionCount{}}

	total, err := s.votes.CountDocuments(ctx, query)
	if err != nil {
		return models.VoteStats{}, wrapErr("count votes", err)
	}
	stats.TotalVotes = int(total)

	voters, err := s.votes.Distinct(ctx, "voterId", query)
	if err != nil {
		return models.VoteStats{}, wrapErr("distinct voters", err)
	}
	stats.UniqueVoters = len(voters)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: query}},
		{{Key: "$group", Value: bson.M{"_id": "$optionIndex", "votes": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := s.votes.Aggregate(ctx, pipeline)
	if err != nil {
		return models.VoteStats{}, wrapErr("votes by option", err)
	}

	var groups []struct {
		OptionIndex int `bson:"_id"`
		Votes       int `bson:"votes"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return models.VoteStats{}, wrapErr("votes by option", err)
	}
	for _, g := range groups {
		stats.VotesByOption = append(stats.VotesByOption, models.OptionCount{OptionIndex: g.OptionIndex, Votes: g.Votes})
	}
	return stats, nil
}

// Conversions

func toPollDoc(p models.Poll) pollDoc {
	opts := make([]optionDoc, len(p.Options))
	for i, o := range p.Options {
		opts[i] = optionDoc{Text: o.Text, Votes: o.Votes}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	var expiresAt *time.Time
	if p.ExpiresAt != nil {
		t := p.ExpiresAt.UTC()
		expiresAt = &t
	}
	return pollDoc{
		ID:                 p.ID,
		Question:           p.Question,
		Description:        p.Description,
		Options:            opts,
		Creator:            p.Creator,
		IsActive:           p.IsActive,
		ExpiresAt:          expiresAt,
		AllowMultipleVotes: p.AllowMultipleVotes,
		TotalVotes:         p.TotalVotes,
		Category:           p.Category,
		Tags:               tags,
		CreatedAt:          p.CreatedAt.UTC(),
		UpdatedAt:          p.UpdatedAt.UTC(),
	}
}

func (d pollDoc) model() models.Poll {
	opts := make([]models.Option, len(d.Options))
	for i, o := range d.Options {
		opts[i] = models.Option{Text: o.Text, Votes: o.Votes}
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	var expiresAt *time.Time
	if d.ExpiresAt != nil {
		t := d.ExpiresAt.UTC()
		expiresAt = &t
	}
	return models.Poll{
		ID:                 d.ID,
		Question:           d.Question,
		Description:        d.Description,
		Options:            opts,
		Creator:            d.Creator,
		IsActive:           d.IsActive,
		ExpiresAt:          expiresAt,
		AllowMultipleVotes: d.AllowMultipleVotes,
		TotalVotes:         d.TotalVotes,
		Category:           d.Category,
		Tags:               tags,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}

func (d voteDoc) model() models.Vote {
	return models.Vote{
		ID:          d.ID,
		PollID:      d.PollID,
		OptionIndex: d.OptionIndex,
		VoterID:     d.VoterID,
		Timestamp:   d.Timestamp.UTC(),
	}
}

func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %v", op, store.ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
