// Package sampling turns percentage distributions and a pool of candidate
// questions into a reproducible question set for one assessment instance.
package sampling

import (
	"cmp"
	"slices"
)

// Status is the outcome of a planning run. It is a result, not an error:
// PartiallySatisfied plans are valid and the caller decides whether to accept
// the shortfall.
type Status string

const (
	StatusSatisfied          Status = "SATISFIED"
	StatusPartiallySatisfied Status = "PARTIALLY_SATISFIED"
	StatusFailed             Status = "FAILED"
)

// WholePoolBucket is the bucket key used when neither axis is constrained.
const WholePoolBucket = "*"

// BucketReport compares what a bucket was asked for with what it supplied.
type BucketReport struct {
	Bucket    string `json:"bucket"`
	Requested int    `json:"requested"`
	Supplied  int    `json:"supplied"`
}

// Plan is the concrete question set drawn for one assessment instance.
type Plan struct {
	Seed        int64          `json:"seed"`
	Requested   int            `json:"requested"`
	QuestionIDs []string       `json:"question_ids"`
	Buckets     []BucketReport `json:"buckets"`
	Shortfalls  []BucketReport `json:"shortfalls"`
	Status      Status         `json:"status"`

	// Err is the validation failure behind a Failed plan, if any.
	Err error `json:"-"`
}

// Supplied returns the number of questions actually drawn.
func (p Plan) Supplied() int { return len(p.QuestionIDs) }

type bucket struct {
	key        string
	target     int
	candidates []Question
}

// NewPlan draws a question set for cfg from pool. It validates both
// distributions against the pool, apportions the total across buckets and
// draws each bucket with a shuffle seeded by seed. A validation failure
// returns a Failed plan together with the error; no partial plan is drawn.
func NewPlan(cfg Configuration, pool *Pool, seed int64) (Plan, error) {
	plan := Plan{
		Seed:        seed,
		Requested:   cfg.TotalQuestions,
		QuestionIDs: []string{},
		Buckets:     []BucketReport{},
		Shortfalls:  []BucketReport{},
	}

	if cfg.TotalQuestions < 0 {
		return failed(plan, &ValidationError{Err: ErrInvalidTotal})
	}
	if err := Validate(cfg.DifficultyDistribution, pool.Keys(AxisDifficulty)); err != nil {
		return failed(plan, err)
	}
	if err := Validate(cfg.OwnerDistribution, pool.Keys(AxisOwner)); err != nil {
		return failed(plan, err)
	}

	if cfg.TotalQuestions == 0 {
		plan.Status = StatusSatisfied
		return plan, nil
	}

	buckets := plannedBuckets(cfg, pool)
	slices.SortFunc(buckets, func(a, b bucket) int { return cmp.Compare(a.key, b.key) })

	for _, b := range buckets {
		picked := draw(b.candidates, b.target, seed, b.key)
		for _, q := range picked {
			plan.QuestionIDs = append(plan.QuestionIDs, q.ID)
		}

		report := BucketReport{Bucket: b.key, Requested: b.target, Supplied: len(picked)}
		plan.Buckets = append(plan.Buckets, report)
		if report.Supplied < report.Requested {
			plan.Shortfalls = append(plan.Shortfalls, report)
		}
	}

	switch {
	case plan.Supplied() == 0:
		plan.Status = StatusFailed
	case len(plan.Shortfalls) > 0:
		plan.Status = StatusPartiallySatisfied
	default:
		plan.Status = StatusSatisfied
	}
	return plan, nil
}

// Targets returns the per-bucket targets NewPlan would draw for cfg, before
// any shortfall. It does not validate cfg.
func Targets(cfg Configuration) map[string]int {
	targets := make(map[string]int)
	for _, b := range plannedBuckets(cfg, nil) {
		targets[b.key] = b.target
	}
	return targets
}

// plannedBuckets lays out the buckets for cfg. With an owner distribution the
// owner targets come first and each owner's target is then split by the
// difficulty distribution over that owner's questions only. A nil pool yields
// buckets without candidates.
func plannedBuckets(cfg Configuration, pool *Pool) []bucket {
	diff, owners := cfg.DifficultyDistribution, cfg.OwnerDistribution
	var out []bucket

	switch {
	case len(owners) > 0:
		ownerTargets := Apportion(cfg.TotalQuestions, owners)
		for _, owner := range owners.Keys() {
			if len(diff) == 0 {
				out = append(out, bucket{
					key:        owner,
					target:     ownerTargets[owner],
					candidates: listFor(pool, AxisOwner, owner),
				})
				continue
			}
			split := Apportion(ownerTargets[owner], diff)
			for _, d := range diff.Keys() {
				var candidates []Question
				if pool != nil {
					candidates = pool.ListForOwnerDifficulty(owner, Difficulty(d))
				}
				out = append(out, bucket{
					key:        owner + "/" + d,
					target:     split[d],
					candidates: candidates,
				})
			}
		}

	case len(diff) > 0:
		targets := Apportion(cfg.TotalQuestions, diff)
		for _, d := range diff.Keys() {
			out = append(out, bucket{
				key:        d,
				target:     targets[d],
				candidates: listFor(pool, AxisDifficulty, d),
			})
		}

	default:
		var all []Question
		if pool != nil {
			all = pool.All()
		}
		out = append(out, bucket{key: WholePoolBucket, target: cfg.TotalQuestions, candidates: all})
	}

	return out
}

func listFor(pool *Pool, axis Axis, key string) []Question {
	if pool == nil {
		return nil
	}
	return pool.ListFor(axis, key)
}

func failed(plan Plan, err error) (Plan, error) {
	plan.Status = StatusFailed
	plan.Err = err
	return plan, err
}
