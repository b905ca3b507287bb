package sampling

// Difficulty is the difficulty tier of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every tier in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// DifficultyKeys returns the difficulty tiers as a key set, for validating
// a difficulty distribution before any pool is available.
func DifficultyKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(Difficulties))
	for _, d := range Difficulties {
		keys[string(d)] = struct{}{}
	}
	return keys
}

// Question is a read-only snapshot of a candidate question.
type Question struct {
	ID         string     `json:"id" yaml:"id"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	// OwnerKey is the chapter or module id the question is filed under.
	OwnerKey string `json:"owner_key" yaml:"owner_key"`
	Points   int    `json:"points" yaml:"points"`
}
