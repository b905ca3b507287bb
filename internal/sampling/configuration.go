package sampling

// ScopeKind names the catalog an owner key belongs to.
type ScopeKind string

const (
	// ScopeFormation scopes owner keys to the modules of a formation.
	ScopeFormation ScopeKind = "formation"
	// ScopeCertification scopes owner keys to the chapters of a certification.
	ScopeCertification ScopeKind = "certification"
)

// Scope identifies the catalog entry whose modules or chapters make up the
// owner axis of a configuration.
type Scope struct {
	Kind ScopeKind `json:"kind" yaml:"kind" validate:"omitempty,oneof=formation certification"`
	ID   string    `json:"id" yaml:"id" validate:"required_with=Kind"`
}

// IsZero reports whether no scope was set.
func (s Scope) IsZero() bool { return s.Kind == "" && s.ID == "" }

// Configuration describes how an assessment instance is sampled from a pool.
// Edits produce a new value; the planner never mutates it.
type Configuration struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name" validate:"max=255"`

	TotalQuestions         int             `json:"total_questions" yaml:"total_questions" validate:"min=1"`
	DifficultyDistribution DistributionMap `json:"difficulty_distribution" yaml:"difficulty_distribution"`
	// OwnerDistribution is optional; when set it is applied before the
	// difficulty distribution, which then splits each owner's share.
	OwnerDistribution DistributionMap `json:"owner_distribution,omitempty" yaml:"owner_distribution,omitempty"`

	PassingScore     int  `json:"passing_score" yaml:"passing_score" validate:"min=0,max=100"`
	TimeLimitMinutes *int `json:"time_limit_minutes,omitempty" yaml:"time_limit_minutes,omitempty" validate:"omitempty,min=1"`

	Scope   Scope `json:"scope" yaml:"scope"`
	Version int   `json:"version" yaml:"version,omitempty"`
}
