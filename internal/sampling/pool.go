package sampling

import (
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Axis selects how a Pool is partitioned.
type Axis int

const (
	AxisDifficulty Axis = iota
	AxisOwner
)

func (a Axis) String() string {
	switch a {
	case AxisDifficulty:
		return "difficulty"
	case AxisOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Pool is an immutable index of candidate questions, grouped by owner and by
// difficulty. Every list keeps input order so that draws are reproducible.
type Pool struct {
	questions    []Question
	byDifficulty map[string][]Question
	byOwner      map[string][]Question
	byCell       map[cell][]Question
}

type cell struct {
	owner      string
	difficulty Difficulty
}

// NewPool indexes questions in a single pass. Question ids must be unique.
func NewPool(questions []Question) (*Pool, error) {
	p := &Pool{
		questions:    make([]Question, 0, len(questions)),
		byDifficulty: make(map[string][]Question),
		byOwner:      make(map[string][]Question),
		byCell:       make(map[cell][]Question),
	}
	seen := make(map[string]struct{}, len(questions))

	for _, q := range questions {
		if _, dup := seen[q.ID]; dup {
			return nil, duplicateQuestion(q.ID)
		}
		if q.ID == "" || q.OwnerKey == "" || !q.Difficulty.Valid() || q.Points <= 0 {
			return nil, &ValidationError{Err: ErrInvalidQuestion, QuestionID: q.ID}
		}
		seen[q.ID] = struct{}{}

		p.questions = append(p.questions, q)
		p.byDifficulty[string(q.Difficulty)] = append(p.byDifficulty[string(q.Difficulty)], q)
		p.byOwner[q.OwnerKey] = append(p.byOwner[q.OwnerKey], q)
		c := cell{owner: q.OwnerKey, difficulty: q.Difficulty}
		p.byCell[c] = append(p.byCell[c], q)
	}
	return p, nil
}

// Len returns the number of questions in the pool.
func (p *Pool) Len() int { return len(p.questions) }

// All returns every question in input order.
func (p *Pool) All() []Question { return slices.Clone(p.questions) }

// CountFor returns the number of questions in the bucket key on axis.
func (p *Pool) CountFor(axis Axis, key string) int {
	return len(p.index(axis)[key])
}

// ListFor returns the questions of bucket key on axis, in input order.
func (p *Pool) ListFor(axis Axis, key string) []Question {
	return slices.Clone(p.index(axis)[key])
}

// ListForOwnerDifficulty returns the intersection of an owner bucket and a
// difficulty bucket, in input order.
func (p *Pool) ListForOwnerDifficulty(owner string, difficulty Difficulty) []Question {
	return slices.Clone(p.byCell[cell{owner: owner, difficulty: difficulty}])
}

// Keys returns the non-empty bucket keys on axis as a set.
func (p *Pool) Keys(axis Axis) map[string]struct{} {
	idx := p.index(axis)
	keys := make(map[string]struct{}, len(idx))
	for k := range idx {
		keys[k] = struct{}{}
	}
	return keys
}

// Fingerprint hashes the pool's questions in input order. Two pools with the
// same fingerprint produce the same plan for the same configuration and seed.
func (p *Pool) Fingerprint() uint64 {
	d := xxhash.New()
	for _, q := range p.questions {
		d.WriteString(q.ID)
		d.WriteString("\x00")
		d.WriteString(q.OwnerKey)
		d.WriteString("\x00")
		d.WriteString(string(q.Difficulty))
		d.WriteString("\x00")
		d.WriteString(strconv.Itoa(q.Points))
		d.WriteString("\x1e")
	}
	return d.Sum64()
}

func (p *Pool) index(axis Axis) map[string][]Question {
	switch axis {
	case AxisOwner:
		return p.byOwner
	case AxisDifficulty:
		return p.byDifficulty
	default:
		return nil
	}
}
