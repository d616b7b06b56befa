package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/autentika/leadgate/internal/pkg/cache"
)

// Deduper remembers which idempotency keys already produced a lead, so a
// retried submission returns the original lead id instead of a duplicate row.
// Implementations are best-effort: dedupe must never block intake.
type Deduper interface {
	Lookup(landingPageID uint, key string) (leadUUID string, found bool)
	Remember(landingPageID uint, key, leadUUID string)
}

// redisDeduper stores key→lead-uuid mappings in the shared cache for a fixed
// window. Keys are hashed so arbitrary caller input never becomes a raw redis
// key.
type redisDeduper struct {
	ttl time.Duration
}

// NewRedisDeduper returns a cache-backed Deduper with a 24h replay window.
func NewRedisDeduper() Deduper {
	return &redisDeduper{ttl: 24 * time.Hour}
}

func (d *redisDeduper) Lookup(landingPageID uint, key string) (string, bool) {
	val, err := cache.Get(dedupeCacheKey(landingPageID, key))
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func (d *redisDeduper) Remember(landingPageID uint, key, leadUUID string) {
	ok, err := cache.SetNX(dedupeCacheKey(landingPageID, key), leadUUID, d.ttl)
	if err != nil {
		log.Printf("dedupe store failed for landing page %d: %v", landingPageID, err)
		return
	}
	_ = ok // a concurrent writer winning the race is fine, first lead id sticks
}

func dedupeCacheKey(landingPageID uint, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("intake:idem:%d:%s", landingPageID, hex.EncodeToString(sum[:]))
}
