package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/metrics"
	"github.com/stemsi/exstem-planner/internal/model"
)

const (
	PlanPersistBatchSize    = 50
	PlanPersistBatchTimeout = 2 * time.Second
	PlanPersistPollTimeout  = 1 * time.Second
	// PlanPersistMaxAttempts bounds how often a plan is written before it is
	// dropped from the queue.
	PlanPersistMaxAttempts = 5
)

// PlanExecer runs plan writes; *pgxpool.Pool satisfies it.
type PlanExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PlanQueue is the Redis list plans wait on; *redis.Client satisfies it.
type PlanQueue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// PlanPersistWorker drains the plan queue into the sampling_plans table.
type PlanPersistWorker struct {
	pool    PlanExecer
	rdb     PlanQueue
	metrics *metrics.PlannerMetrics
	log     zerolog.Logger
}

func NewPlanPersistWorker(pool PlanExecer, rdb PlanQueue, m *metrics.PlannerMetrics, log zerolog.Logger) *PlanPersistWorker {
	return &PlanPersistWorker{
		pool:    pool,
		rdb:     rdb,
		metrics: m,
		log:     log.With().Str("component", "plan_persist_worker").Logger(),
	}
}

func (w *PlanPersistWorker) Start(ctx context.Context) {
	w.log.Info().Msg("PlanPersistWorker started")

	batch := make([]*model.PlanRecord, 0, PlanPersistBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= PlanPersistBatchSize || time.Since(lastFlush) >= PlanPersistBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, PlanPersistPollTimeout, config.WorkerKey.PersistPlansQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var rec model.PlanRecord
			if err := json.Unmarshal([]byte(item[1]), &rec); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				w.metrics.Dropped(1)
				continue
			}

			batch = append(batch, &rec)
		}
	}
}

func (w *PlanPersistWorker) flushSafe(ctx context.Context, batch []*model.PlanRecord) {
	batch = w.dropInvalid(batch)
	if len(batch) == 0 {
		return
	}

	rows, err := w.bulkUpsert(ctx, batch)
	if err == nil {
		w.metrics.Persisted(int(rows))
		return
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk plan upsert failed, using fallback")

	for _, rec := range batch {
		rows, err := w.persistSingle(ctx, rec)
		if err == nil {
			w.metrics.Persisted(int(rows))
			continue
		}

		if !retryable(rec) {
			w.log.Error().Err(err).
				Str("configuration_id", rec.ConfigurationID).
				Int64("seed", rec.Seed).
				Int("attempts", rec.Attempts).
				Msg("persistSingle failed, dropping plan")
			w.metrics.Dropped(1)
			continue
		}
		w.log.Error().Err(err).
			Str("configuration_id", rec.ConfigurationID).
			Int64("seed", rec.Seed).
			Int("attempts", rec.Attempts).
			Msg("persistSingle failed, requeueing")
		w.requeue(ctx, rec)
	}
}

func (w *PlanPersistWorker) requeue(ctx context.Context, rec *model.PlanRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		w.log.Error().Err(err).Str("configuration_id", rec.ConfigurationID).Msg("Failed to encode plan for requeue")
		w.metrics.Dropped(1)
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistPlansQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("configuration_id", rec.ConfigurationID).Msg("Failed to requeue plan")
		w.metrics.Dropped(1)
		return
	}
	w.metrics.Requeued(1)
}

// dropInvalid removes records that no retry could ever write.
func (w *PlanPersistWorker) dropInvalid(batch []*model.PlanRecord) []*model.PlanRecord {
	valid, invalid := splitValid(batch)
	for _, rec := range invalid {
		w.log.Warn().
			Str("configuration_id", rec.ConfigurationID).
			Int64("seed", rec.Seed).
			Msg("Dropping plan with invalid configuration id")
	}
	if len(invalid) > 0 {
		w.metrics.Dropped(len(invalid))
	}
	return valid
}

func splitValid(batch []*model.PlanRecord) (valid, invalid []*model.PlanRecord) {
	for _, rec := range batch {
		if _, err := uuid.Parse(rec.ConfigurationID); err != nil {
			invalid = append(invalid, rec)
			continue
		}
		valid = append(valid, rec)
	}
	return valid, invalid
}

// retryable counts a failed attempt on rec and reports whether it may be
// queued again.
func retryable(rec *model.PlanRecord) bool {
	rec.Attempts++
	return rec.Attempts < PlanPersistMaxAttempts
}

// planColumns holds a batch split into the parallel arrays UNNEST expects.
type planColumns struct {
	configIDs  []uuid.UUID
	versions   []int
	seeds      []int64
	statuses   []string
	requested  []int
	ids        [][]byte
	buckets    [][]byte
	shortfalls [][]byte
	createdAt  []time.Time
}

func columnsOf(batch []*model.PlanRecord) (*planColumns, error) {
	n := len(batch)
	c := &planColumns{
		configIDs:  make([]uuid.UUID, 0, n),
		versions:   make([]int, 0, n),
		seeds:      make([]int64, 0, n),
		statuses:   make([]string, 0, n),
		requested:  make([]int, 0, n),
		ids:        make([][]byte, 0, n),
		buckets:    make([][]byte, 0, n),
		shortfalls: make([][]byte, 0, n),
		createdAt:  make([]time.Time, 0, n),
	}

	for _, rec := range batch {
		cID, err := uuid.Parse(rec.ConfigurationID)
		if err != nil {
			return nil, err
		}
		ids, _ := json.Marshal(rec.QuestionIDs)
		buckets, _ := json.Marshal(rec.Buckets)
		shortfalls, _ := json.Marshal(rec.Shortfalls)

		c.configIDs = append(c.configIDs, cID)
		c.versions = append(c.versions, rec.ConfigurationVersion)
		c.seeds = append(c.seeds, rec.Seed)
		c.statuses = append(c.statuses, string(rec.Status))
		c.requested = append(c.requested, rec.Requested)
		c.ids = append(c.ids, ids)
		c.buckets = append(c.buckets, buckets)
		c.shortfalls = append(c.shortfalls, shortfalls)
		c.createdAt = append(c.createdAt, rec.CreatedAt)
	}
	return c, nil
}

// bulkUpsert writes the batch in one statement and returns the rows written.
// A later plan for the same configuration and seed replaces the earlier one;
// plans of deleted configurations are skipped.
func (w *PlanPersistWorker) bulkUpsert(ctx context.Context, batch []*model.PlanRecord) (int64, error) {
	c, err := columnsOf(dedupe(batch))
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO sampling_plans
			(configuration_id, configuration_version, seed, status, requested,
			 question_ids, buckets, shortfalls, created_at)
		SELECT u.configuration_id, u.configuration_version, u.seed, u.status, u.requested,
		       u.question_ids, u.buckets, u.shortfalls, u.created_at
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::bigint[],
			$4::text[],
			$5::int[],
			$6::jsonb[],
			$7::jsonb[],
			$8::jsonb[],
			$9::timestamptz[]
		) AS u (configuration_id, configuration_version, seed, status, requested,
		        question_ids, buckets, shortfalls, created_at)
		WHERE EXISTS (SELECT 1 FROM sampling_configurations s WHERE s.id = u.configuration_id)
		ON CONFLICT (configuration_id, seed) DO UPDATE
		SET configuration_version = EXCLUDED.configuration_version,
		    status                = EXCLUDED.status,
		    requested             = EXCLUDED.requested,
		    question_ids          = EXCLUDED.question_ids,
		    buckets               = EXCLUDED.buckets,
		    shortfalls            = EXCLUDED.shortfalls,
		    created_at            = EXCLUDED.created_at
	`

	tag, err := w.pool.Exec(ctx, query,
		c.configIDs, c.versions, c.seeds, c.statuses, c.requested,
		c.ids, c.buckets, c.shortfalls, c.createdAt,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (w *PlanPersistWorker) persistSingle(ctx context.Context, rec *model.PlanRecord) (int64, error) {
	cID, err := uuid.Parse(rec.ConfigurationID)
	if err != nil {
		return 0, err
	}

	ids, _ := json.Marshal(rec.QuestionIDs)
	buckets, _ := json.Marshal(rec.Buckets)
	shortfalls, _ := json.Marshal(rec.Shortfalls)

	tag, err := w.pool.Exec(ctx,
		`INSERT INTO sampling_plans
			(configuration_id, configuration_version, seed, status, requested,
			 question_ids, buckets, shortfalls, created_at)
		 SELECT $1::uuid, $2::int, $3::bigint, $4::text, $5::int, $6::jsonb, $7::jsonb, $8::jsonb, $9::timestamptz
		 WHERE EXISTS (SELECT 1 FROM sampling_configurations WHERE id = $1::uuid)
		 ON CONFLICT (configuration_id, seed) DO UPDATE
		 SET configuration_version = EXCLUDED.configuration_version,
		     status = EXCLUDED.status,
		     requested = EXCLUDED.requested,
		     question_ids = EXCLUDED.question_ids,
		     buckets = EXCLUDED.buckets,
		     shortfalls = EXCLUDED.shortfalls,
		     created_at = EXCLUDED.created_at`,
		cID, rec.ConfigurationVersion, rec.Seed, string(rec.Status), rec.Requested,
		ids, buckets, shortfalls, rec.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// dedupe keeps the last record per configuration and seed; Postgres rejects
// an upsert that touches the same row twice.
func dedupe(batch []*model.PlanRecord) []*model.PlanRecord {
	type key struct {
		id   string
		seed int64
	}
	last := make(map[key]int, len(batch))
	for i, rec := range batch {
		last[key{rec.ConfigurationID, rec.Seed}] = i
	}

	out := make([]*model.PlanRecord, 0, len(last))
	for i, rec := range batch {
		if last[key{rec.ConfigurationID, rec.Seed}] == i {
			out = append(out, rec)
		}
	}
	return out
}
