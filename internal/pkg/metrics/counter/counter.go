package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/autentika/leadgate/internal/pkg/cache"
	"github.com/autentika/leadgate/internal/pkg/database"
)

const (
	intakeKey = "landing:counters:intake"
	// Spam hits never resolve a landing page, so they are counted globally.
	spamTotalKey = "landing:counters:spam_total"
)

// AddIntake increments the pending intake counter for a landing page in Redis
func AddIntake(landingPageID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(landingPageID), 10)
	return cache.GetClient().HIncrBy(ctx, intakeKey, field, 1).Err()
}

// AddSpam increments the global honeypot counter
func AddSpam() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, spamTotalKey).Err()
}

// SpamTotal returns the global honeypot counter value
func SpamTotal() (int64, error) {
	ctx := context.Background()
	val, err := cache.GetClient().Get(ctx, spamTotalKey).Int64()
	if err != nil {
		return 0, err
	}
	return val, nil
}

// FlushAll flushes the pending intake counters to the database
func FlushAll() error {
	return flushHashToColumn(intakeKey, "intake_count")
}

// flushHashToColumn drains a Redis hash atomically and applies batched
// increments to the landing_pages table. Uses RENAME to a temporary key so
// in-flight increments are not lost during the drain.
func flushHashToColumn(redisKey, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}

	entries, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	db := database.GetDB()
	for _, id := range ids {
		delta, err := strconv.ParseInt(entries[id], 10, 64)
		if err != nil || delta == 0 {
			continue
		}
		stmt := fmt.Sprintf("UPDATE landing_pages SET %s = %s + ? WHERE id = ?", column, column)
		if err := db.Exec(stmt, delta, id).Error; err != nil {
			return err
		}
	}

	return rdb.Del(ctx, tmpKey).Err()
}
