// Package export publishes the public station directory as a JSON snapshot
// in object storage, for static consumers that cannot call the API.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/resilience"
)

// DefaultKey is the object key of the directory snapshot.
const DefaultKey = "stations.json"

// Export errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotExpired  = errors.New("snapshot expired")
	ErrNoBucket         = errors.New("empty bucket name")
)

// S3Client defines the S3 operations the exporter needs.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot is the stored directory document.
type Snapshot struct {
	Stations    []models.Station      `json:"stations"`
	Summary     models.StationSummary `json:"summary"`
	GeneratedAt models.Timestamp      `json:"generatedAt"`
	// TTL is the Unix time after which the snapshot is stale.
	TTL int64 `json:"ttl"`
}

// Config holds the exporter settings.
type Config struct {
	Client S3Client
	Bucket string
	// Key defaults to DefaultKey.
	Key string
	TTL time.Duration
	// Executor is optional. When set, S3 calls go through it.
	Executor *resilience.Executor
	Logger   zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// SnapshotExporter writes and reads the directory snapshot.
type SnapshotExporter struct {
	client   S3Client
	bucket   string
	key      string
	ttl      time.Duration
	executor *resilience.Executor
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSnapshotExporter creates an exporter from cfg.
func NewSnapshotExporter(cfg Config) *SnapshotExporter {
	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &SnapshotExporter{
		client:   cfg.Client,
		bucket:   cfg.Bucket,
		key:      key,
		ttl:      ttl,
		executor: cfg.Executor,
		logger:   cfg.Logger.With().Str("component", "snapshot_exporter").Logger(),
		now:      now,
	}
}

// Save writes a snapshot of stations and summary.
func (e *SnapshotExporter) Save(ctx context.Context, stations []models.Station, summary models.StationSummary) (*Snapshot, error) {
	if e.bucket == "" {
		return nil, ErrNoBucket
	}
	if stations == nil {
		stations = []models.Station{}
	}

	now := e.now().UTC()
	snap := &Snapshot{
		Stations:    stations,
		Summary:     summary,
		GeneratedAt: models.Timestamp(now),
		TTL:         now.Add(e.ttl).Unix(),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	body := buf.Bytes()

	err := e.do(ctx, func(ctx context.Context) error {
		_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(e.bucket),
			Key:          aws.String(e.key),
			Body:         bytes.NewReader(body),
			ContentType:  aws.String("application/json"),
			CacheControl: aws.String(fmt.Sprintf("public, max-age=%d", int(e.ttl.Seconds()))),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("saving snapshot to S3: %w", err)
	}

	e.logger.Info().
		Int("station_count", len(stations)).
		Str("key", e.key).
		Msg("directory snapshot saved")

	return snap, nil
}

// Load reads the current snapshot. It returns ErrSnapshotNotFound when none
// was written yet and ErrSnapshotExpired when its TTL has passed.
func (e *SnapshotExporter) Load(ctx context.Context) (*Snapshot, error) {
	if e.bucket == "" {
		return nil, ErrNoBucket
	}

	var (
		out     *s3.GetObjectOutput
		missing bool
	)
	err := e.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(e.bucket),
			Key:    aws.String(e.key),
		})
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			missing = true
			return resilience.Permanent(err)
		}
		return err
	})
	if missing {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot from S3: %w", err)
	}
	defer func() {
		if cerr := out.Body.Close(); cerr != nil {
			e.logger.Warn().Err(cerr).Msg("closing snapshot body")
		}
	}()

	var snap Snapshot
	if err := json.NewDecoder(out.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	if e.now().Unix() > snap.TTL {
		e.logger.Debug().Int64("ttl", snap.TTL).Msg("directory snapshot expired")
		return &snap, ErrSnapshotExpired
	}

	return &snap, nil
}

// Check reports whether a current snapshot is readable. It fails while the
// snapshot is missing or expired.
func (e *SnapshotExporter) Check(ctx context.Context) error {
	_, err := e.Load(ctx)
	return err
}

func (e *SnapshotExporter) do(ctx context.Context, op func(ctx context.Context) error) error {
	if e.executor == nil {
		return op(ctx)
	}
	return e.executor.Do(ctx, op)
}
