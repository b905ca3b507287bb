package model

// Module is a unit of a formation. Its key is the owner key of its questions.
type Module struct {
	ID            int    `json:"id"`
	FormationID   string `json:"formation_id"`
	Key           string `json:"key"`
	Title         string `json:"title"`
	Position      int    `json:"position"`
	QuestionCount int    `json:"question_count"`
}

// Chapter is a unit of a certification. Its key is the owner key of its questions.
type Chapter struct {
	ID              int    `json:"id"`
	CertificationID string `json:"certification_id"`
	Key             string `json:"key"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	QuestionCount   int    `json:"question_count"`
}
