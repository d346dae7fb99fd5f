package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kyuwon/tradewind/internal/core"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Disk is the optional persistent cache tier, backed by SQLite. Transient
// busy/locked errors are retried a bounded number of times with increasing
// delay; once retries are exhausted the operation gives up silently and the
// caller falls back to a live fetch.
type Disk struct {
	db         *sql.DB
	ttl        time.Duration
	maxRetries uint64
	retryDelay time.Duration
	logger     *zap.Logger
}

// DiskOptions configures the persistent tier.
type DiskOptions struct {
	Path       string
	TTL        time.Duration
	MaxRetries uint64        // bounded retry count for busy errors
	RetryDelay time.Duration // base delay, grows per attempt
	Logger     *zap.Logger
}

// NewDisk opens (or creates) the cache database.
func NewDisk(opts DiskOptions) (*Disk, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 80 * time.Millisecond
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL allows concurrent readers while a writer holds the lock.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history_cache (
		key     TEXT PRIMARY KEY,
		ts      INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Disk{
		db:         db,
		ttl:        opts.TTL,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
	}, nil
}

// Close releases the database handle.
func (d *Disk) Close() error {
	return d.db.Close()
}

func cacheKey(key Key) string {
	return key.Ticker + "|" + key.Period + "|" + key.Interval
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "busy") || strings.Contains(msg, "locked")
}

// retry runs op with bounded, linearly increasing delays on busy errors.
// Non-busy errors abort immediately.
func (d *Disk) retry(op func() error) error {
	attempt := 0
	b := backoff.WithMaxRetries(&linearBackOff{base: d.retryDelay, attempt: &attempt}, d.maxRetries)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

// linearBackOff waits base * attempt, matching the bounded linear policy the
// cache requires rather than an exponential curve.
type linearBackOff struct {
	base    time.Duration
	attempt *int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	*l.attempt++
	return l.base * time.Duration(*l.attempt)
}

func (l *linearBackOff) Reset() { *l.attempt = 0 }

// Get returns the cached series if present and fresh. Errors never escape:
// a failed read is a miss.
func (d *Disk) Get(key Key) ([]core.PriceBar, bool) {
	var ts int64
	var payload []byte
	err := d.retry(func() error {
		row := d.db.QueryRow("SELECT ts, payload FROM history_cache WHERE key = ?", cacheKey(key))
		return row.Scan(&ts, &payload)
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			d.logger.Debug("disk cache read failed", zap.String("key", cacheKey(key)), zap.Error(err))
		}
		return nil, false
	}
	if time.Since(time.Unix(ts, 0)) >= d.ttl {
		return nil, false
	}
	var bars []core.PriceBar
	if err := json.Unmarshal(payload, &bars); err != nil {
		return nil, false
	}
	return bars, true
}

// Set stores a series. A failed write is logged and dropped.
func (d *Disk) Set(key Key, bars []core.PriceBar) {
	payload, err := json.Marshal(bars)
	if err != nil {
		return
	}
	err = d.retry(func() error {
		_, err := d.db.Exec(
			"REPLACE INTO history_cache (key, ts, payload) VALUES (?, ?, ?)",
			cacheKey(key), time.Now().Unix(), payload,
		)
		return err
	})
	if err != nil {
		d.logger.Debug("disk cache write failed", zap.String("key", cacheKey(key)), zap.Error(err))
	}
}

// Sweep deletes entries older than the TTL.
func (d *Disk) Sweep() {
	cutoff := time.Now().Add(-d.ttl).Unix()
	err := d.retry(func() error {
		_, err := d.db.Exec("DELETE FROM history_cache WHERE ts < ?", cutoff)
		return err
	})
	if err != nil {
		d.logger.Debug("disk cache sweep failed", zap.Error(err))
	}
}
