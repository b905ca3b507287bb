package model

import (
	"time"

	"github.com/stemsi/exstem-planner/internal/sampling"
)

// PlanRecord is a persisted plan in the sampling_plans table. PoolFingerprint
// identifies the question pool the plan was drawn from and Attempts counts
// failed writes on the persistence queue; neither is stored in the table.
type PlanRecord struct {
	ConfigurationID      string                  `json:"configuration_id"`
	ConfigurationVersion int                     `json:"configuration_version"`
	Seed                 int64                   `json:"seed"`
	Status               sampling.Status         `json:"status"`
	Requested            int                     `json:"requested"`
	QuestionIDs          []string                `json:"question_ids"`
	Buckets              []sampling.BucketReport `json:"buckets"`
	Shortfalls           []sampling.BucketReport `json:"shortfalls"`
	PoolFingerprint      uint64                  `json:"pool_fingerprint,omitempty"`
	Attempts             int                     `json:"attempts,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
}

// NewPlanRecord captures plan as drawn for version of a configuration from a
// pool with the given fingerprint.
func NewPlanRecord(configurationID string, version int, fingerprint uint64, plan sampling.Plan) PlanRecord {
	return PlanRecord{
		ConfigurationID:      configurationID,
		ConfigurationVersion: version,
		PoolFingerprint:      fingerprint,
		Seed:                 plan.Seed,
		Status:               plan.Status,
		Requested:            plan.Requested,
		QuestionIDs:          plan.QuestionIDs,
		Buckets:              plan.Buckets,
		Shortfalls:           plan.Shortfalls,
		CreatedAt:            time.Now().UTC(),
	}
}

// Plan restores the planner value from the record.
func (r PlanRecord) Plan() sampling.Plan {
	return sampling.Plan{
		Seed:        r.Seed,
		Requested:   r.Requested,
		QuestionIDs: r.QuestionIDs,
		Buckets:     r.Buckets,
		Shortfalls:  r.Shortfalls,
		Status:      r.Status,
	}
}

// PlanResponse is returned by the plan endpoints.
type PlanResponse struct {
	ConfigurationID      string `json:"configuration_id,omitempty"`
	ConfigurationVersion int    `json:"configuration_version,omitempty"`
	sampling.Plan
	Supplied int  `json:"supplied"`
	Cached   bool `json:"cached"`
}

// PreviewPlanRequest plans a configuration that has not been saved yet.
type PreviewPlanRequest struct {
	Configuration SaveConfigurationRequest `json:"configuration"`
	Seed          int64                    `json:"seed"`
}
