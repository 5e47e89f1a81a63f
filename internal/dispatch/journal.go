package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	outcomeKeyPrefix = "dispatch:ticket:"
	failedSetKey     = "dispatch:failed"
)

// ErrJournalDisabled is returned by Failed when no redis client is configured.
var ErrJournalDisabled = errors.New("dispatch journal not configured")

// Outcome is the last recorded dispatch attempt for a ticket.
type Outcome struct {
	TicketID string    `json:"ticket_id"`
	Category string    `json:"categoria"`
	Link     string    `json:"link,omitempty"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Journal keeps dispatch outcomes so lost notifications can be found and re-triggered.
type Journal interface {
	Record(ctx context.Context, outcome Outcome) error
	Failed(ctx context.Context, limit int64) ([]Outcome, error)
}

// NewJournal returns a redis journal, or a no-op one when client is nil.
func NewJournal(client *redis.Client, ttl time.Duration) Journal {
	if client == nil {
		return noopJournal{}
	}
	return &redisJournal{client: client, ttl: ttl}
}

type redisJournal struct {
	client *redis.Client
	ttl    time.Duration
}

func (j *redisJournal) Record(ctx context.Context, outcome Outcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	pipe := j.client.TxPipeline()
	pipe.Set(ctx, outcomeKeyPrefix+outcome.TicketID, body, j.ttl)
	if outcome.OK {
		pipe.ZRem(ctx, failedSetKey, outcome.TicketID)
	} else {
		pipe.ZAdd(ctx, failedSetKey, redis.Z{Score: float64(outcome.At.Unix()), Member: outcome.TicketID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (j *redisJournal) Failed(ctx context.Context, limit int64) ([]Outcome, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := j.client.ZRevRange(ctx, failedSetKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Outcome{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = outcomeKeyPrefix + id
	}
	raw, err := j.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	result := make([]Outcome, 0, len(raw))
	for i, item := range raw {
		body, ok := item.(string)
		if !ok {
			// expired outcome; keep the id so the ticket can still be re-dispatched
			result = append(result, Outcome{TicketID: ids[i]})
			continue
		}
		var outcome Outcome
		if err := json.Unmarshal([]byte(body), &outcome); err != nil {
			return nil, err
		}
		result = append(result, outcome)
	}
	return result, nil
}

type noopJournal struct{}

func (noopJournal) Record(context.Context, Outcome) error { return nil }

func (noopJournal) Failed(context.Context, int64) ([]Outcome, error) {
	return nil, ErrJournalDisabled
}
