// Package ledger implements the durable, time-indexed payment store from
// spec.md §4.2 (C1): a per-payment Redis hash keyed by (group,
// correlationId) plus a global sorted set indexing correlationId by
// requested_at. Atomicity of save is provided by a Lua script, the same
// mechanism original_source/src/infrastructure/persistence/redis_payment_repository.rs
// uses for its summary scan.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

// Storage layout constants from spec.md §6.
const (
	timeIndexKey      = "processed_payments"
	summaryKeyPrefix  = "payment_summary"
	entryKeyPattern   = summaryKeyPrefix + ":*"
)

// Ledger is the behavioral contract for the durable processed-payment
// store.
type Ledger interface {
	// Save persists payment under payment.ProcessedBy and indexes its
	// correlation id by payment.RequestedAt. Returns
	// apperr.ErrAlreadyPresent if the id is already indexed,
	// apperr.ErrStoreUnavailable on store failure.
	Save(ctx context.Context, payment model.Payment) error

	// IsProcessed reports whether correlationID already appears in the
	// time index, regardless of which group processed it.
	IsProcessed(ctx context.Context, correlationID uuid.UUID) (bool, error)

	// RangeSummary scans the time index for scores in [from, to] and sums
	// the amounts of ids that have a per-group record, per spec.md §4.2.
	RangeSummary(ctx context.Context, group model.Group, from, to time.Time) (count int64, total float64, err error)

	// Clear removes every per-payment record and the time index. Fails
	// closed on partial removal.
	Clear(ctx context.Context) error
}

var saveScript = redis.NewScript(`
local exists = redis.call("ZSCORE", KEYS[2], ARGV[5])
if exists then
	return "ALREADY_PRESENT"
end
redis.call("HSET", KEYS[1], "amount", ARGV[1], "requested_at", ARGV[2], "processed_at", ARGV[3], "processed_by", ARGV[4])
redis.call("ZADD", KEYS[2], ARGV[6], ARGV[5])
return "OK"
`)

var summaryScript = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], ARGV[1], ARGV[2])
local total_requests = 0
local total_amount = 0.0
for i, id in ipairs(ids) do
	local key = ARGV[3] .. ":" .. id
	local amount = redis.call("HGET", key, "amount")
	if amount then
		total_requests = total_requests + 1
		total_amount = total_amount + tonumber(amount)
	end
end
return {tostring(total_requests), tostring(total_amount)}
`)

// RedisLedger is the Ledger implementation backed by Redis.
type RedisLedger struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisLedger wraps an already-constructed Redis client.
func NewRedisLedger(client *redis.Client, log zerolog.Logger) *RedisLedger {
	return &RedisLedger{client: client, log: log.With().Str("component", "ledger").Logger()}
}

// roundAmount applies "round half away from zero" to two decimal places
// and formats it so the stored value survives JSON/Redis round-trips
// exactly, per spec.md §4.2's numeric semantics.
func roundAmount(amount float64) string {
	rounded := math.Round(amount*100) / 100
	if amount < 0 {
		rounded = -math.Round(-amount*100) / 100
	}
	return strconv.FormatFloat(rounded, 'f', 2, 64)
}

func entryKey(group model.Group, correlationID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", summaryKeyPrefix, group, correlationID)
}

func (l *RedisLedger) Save(ctx context.Context, payment model.Payment) error {
	if payment.RequestedAt == nil {
		return fmt.Errorf("ledger: save requires RequestedAt to be set")
	}
	id := payment.CorrelationID.String()
	requestedAt := payment.RequestedAt.UTC().Format(time.RFC3339Nano)
	processedAt := ""
	if payment.ProcessedAt != nil {
		processedAt = payment.ProcessedAt.UTC().Format(time.RFC3339Nano)
	}
	score := payment.RequestedAt.UnixNano()

	result, err := saveScript.Run(ctx, l.client,
		[]string{entryKey(payment.ProcessedBy, payment.CorrelationID), timeIndexKey},
		roundAmount(payment.Amount), requestedAt, processedAt, string(payment.ProcessedBy), id, score,
	).Text()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if result == "ALREADY_PRESENT" {
		return apperr.ErrAlreadyPresent
	}
	return nil
}

// get loads a single per-payment record, scoped to group, per
// original_source/src/domain/repository.rs's per-group lookup: a payment
// processed by the other group is invisible here even though it is
// present in the time index.
func (l *RedisLedger) get(ctx context.Context, group model.Group, correlationID uuid.UUID) (model.Payment, bool, error) {
	fields, err := l.client.HGetAll(ctx, entryKey(group, correlationID)).Result()
	if err != nil {
		return model.Payment{}, false, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return model.Payment{}, false, nil
	}

	amount, _ := strconv.ParseFloat(fields["amount"], 64)
	payment := model.Payment{CorrelationID: correlationID, Amount: amount, ProcessedBy: group}
	if raw := fields["requested_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			payment.RequestedAt = &t
		}
	}
	if raw := fields["processed_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			payment.ProcessedAt = &t
		}
	}
	return payment, true, nil
}

func (l *RedisLedger) IsProcessed(ctx context.Context, correlationID uuid.UUID) (bool, error) {
	_, err := l.client.ZScore(ctx, timeIndexKey, correlationID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return true, nil
}

// RangeSummary's Lua script performs the same per-id, per-group lookup as
// get does (HGET on the same entryKey), just server-side and batched
// across every id in the window instead of one Go round trip per id.
func (l *RedisLedger) RangeSummary(ctx context.Context, group model.Group, from, to time.Time) (int64, float64, error) {
	result, err := summaryScript.Run(ctx, l.client,
		[]string{timeIndexKey},
		from.UnixNano(), to.UnixNano(), fmt.Sprintf("%s:%s", summaryKeyPrefix, group),
	).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if len(result) != 2 {
		return 0, 0, fmt.Errorf("ledger: unexpected summary script reply shape")
	}
	count, _ := strconv.ParseInt(fmt.Sprint(result[0]), 10, 64)
	total, _ := strconv.ParseFloat(fmt.Sprint(result[1]), 64)
	return count, total, nil
}

func (l *RedisLedger) Clear(ctx context.Context) error {
	keys, err := l.client.Keys(ctx, entryKeyPattern).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	pipe := l.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, timeIndexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}
