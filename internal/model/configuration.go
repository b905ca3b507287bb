package model

import (
	"time"

	"github.com/stemsi/exstem-planner/internal/sampling"
)

// ConfigurationSummary is one row of the configuration list.
type ConfigurationSummary struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	TotalQuestions int                `json:"total_questions"`
	ScopeKind      sampling.ScopeKind `json:"scope_kind,omitempty"`
	ScopeID        string             `json:"scope_id,omitempty"`
	Version        int                `json:"version"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ScopeRequest names the formation or certification the owner keys come from.
type ScopeRequest struct {
	Kind string `json:"kind" binding:"omitempty,oneof=formation certification"`
	ID   string `json:"id" binding:"required_with=Kind,max=64"`
}

// SaveConfigurationRequest is the payload for creating or updating a sampling configuration.
type SaveConfigurationRequest struct {
	Name                   string                   `json:"name" binding:"required,min=1,max=255"`
	TotalQuestions         int                      `json:"total_questions" binding:"required,min=1,max=500"`
	DifficultyDistribution sampling.DistributionMap `json:"difficulty_distribution"`
	OwnerDistribution      sampling.DistributionMap `json:"owner_distribution"`
	PassingScore           int                      `json:"passing_score" binding:"min=0,max=100"`
	TimeLimitMinutes       *int                     `json:"time_limit_minutes" binding:"omitempty,min=1"`
	Scope                  ScopeRequest             `json:"scope"`
	// Version must match the stored version on update.
	Version int `json:"version" binding:"min=0"`
}

// ToConfiguration converts the request into a configuration with the given id.
func (r SaveConfigurationRequest) ToConfiguration(id string) sampling.Configuration {
	return sampling.Configuration{
		ID:                     id,
		Name:                   r.Name,
		TotalQuestions:         r.TotalQuestions,
		DifficultyDistribution: r.DifficultyDistribution,
		OwnerDistribution:      r.OwnerDistribution,
		PassingScore:           r.PassingScore,
		TimeLimitMinutes:       r.TimeLimitMinutes,
		Scope:                  sampling.Scope{Kind: sampling.ScopeKind(r.Scope.Kind), ID: r.Scope.ID},
		Version:                r.Version,
	}
}
