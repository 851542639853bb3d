package publish

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the KV bucket holding published page records.
const DefaultBucket = "SKOSDOC_PAGES"

// PageRecord is what the ledger remembers about a published page.
type PageRecord struct {
	Title       string    `json:"title"`
	PageID      string    `json:"page_id"`
	Version     int       `json:"version"`
	Hash        string    `json:"hash"`
	PublishedAt time.Time `json:"published_at"`
}

// BodyHash returns the content hash stored in a PageRecord.
func BodyHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// pageBucket is the part of a KV bucket the ledger needs.
type pageBucket interface {
	Get(ctx context.Context, key string) (value []byte, revision uint64, err error)
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
}

// errKeyNotFound is what pageBucket implementations return for a missing key.
var errKeyNotFound = jetstream.ErrKeyNotFound

type jetstreamBucket struct {
	kv jetstream.KeyValue
}

func (b jetstreamBucket) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	return entry.Value(), entry.Revision(), nil
}

func (b jetstreamBucket) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	return b.kv.Create(ctx, key, value)
}

func (b jetstreamBucket) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	return b.kv.Update(ctx, key, value, revision)
}

// Ledger records published pages in a NATS JetStream KV bucket so that
// unchanged pages are not re-published.
type Ledger struct {
	bucket pageBucket
	logger *slog.Logger
}

// NewLedger opens (or creates) bucket through js.
func NewLedger(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*Ledger, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "skosdoc published pages",
			History:     5,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return newLedger(jetstreamBucket{kv: kv}, logger), nil
}

// ConnectLedger dials natsURL and opens the ledger. The returned close
// function drains the connection.
func ConnectLedger(ctx context.Context, natsURL, bucket string, logger *slog.Logger) (*Ledger, func(), error) {
	nc, err := nats.Connect(natsURL, nats.Name("skosdoc"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	l, err := NewLedger(ctx, js, bucket, logger)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return l, func() { _ = nc.Drain() }, nil
}

func newLedger(b pageBucket, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{bucket: b, logger: logger}
}

// ledgerKey maps a title onto the KV key alphabet.
func ledgerKey(title string) string {
	return "page." + base64.RawURLEncoding.EncodeToString([]byte(title))
}

// Lookup returns the record for title, or ErrPageNotFound.
func (l *Ledger) Lookup(ctx context.Context, title string) (*PageRecord, error) {
	data, _, err := l.bucket.Get(ctx, ledgerKey(title))
	if err != nil {
		if errors.Is(err, errKeyNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("ledger get %q: %w", title, err)
	}
	var rec PageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal page record: %w", err)
	}
	return &rec, nil
}

// Record stores rec, creating the key or updating it at the revision just
// read. A concurrent writer makes Record fail rather than overwrite.
func (l *Ledger) Record(ctx context.Context, rec PageRecord) error {
	key := ledgerKey(rec.Title)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal page record: %w", err)
	}

	_, rev, err := l.bucket.Get(ctx, key)
	switch {
	case errors.Is(err, errKeyNotFound):
		if _, err := l.bucket.Create(ctx, key, data); err != nil {
			return fmt.Errorf("ledger create %q: %w", rec.Title, err)
		}
	case err != nil:
		return fmt.Errorf("ledger get %q: %w", rec.Title, err)
	default:
		if _, err := l.bucket.Update(ctx, key, data, rev); err != nil {
			return fmt.Errorf("ledger update %q: %w", rec.Title, err)
		}
	}
	l.logger.Debug("Recorded page", "title", rec.Title, "page_id", rec.PageID, "version", rec.Version)
	return nil
}
