package sampling

import (
	"errors"
	"fmt"
)

// Validation failures. Callers match them with errors.Is; the *ValidationError
// wrapping them carries the offending bucket, sum or question id.
var (
	ErrUnknownBucket           = errors.New("unknown bucket")
	ErrDistributionNotComplete = errors.New("distribution does not sum to 100")
	ErrDuplicateQuestionID     = errors.New("duplicate question id")
	ErrDuplicateBucket         = errors.New("duplicate bucket")
	ErrInvalidPercentage       = errors.New("percentage out of range")
	ErrInvalidQuestion         = errors.New("invalid question")
	ErrInvalidTotal            = errors.New("total questions must not be negative")
)

// ValidationError describes a rejected distribution, pool input or configuration.
type ValidationError struct {
	// Err is one of the sentinel errors above.
	Err error

	// Bucket is the offending bucket key, if any.
	Bucket string

	// Sum is the computed percentage total for ErrDistributionNotComplete.
	Sum int

	// QuestionID is the offending question for pool construction errors.
	QuestionID string
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDistributionNotComplete):
		return fmt.Sprintf("%v: got %d", e.Err, e.Sum)
	case e.QuestionID != "":
		return fmt.Sprintf("%v: %q", e.Err, e.QuestionID)
	case e.Bucket != "":
		return fmt.Sprintf("%v: %q", e.Err, e.Bucket)
	default:
		return e.Err.Error()
	}
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error { return e.Err }

func unknownBucket(key string) error {
	return &ValidationError{Err: ErrUnknownBucket, Bucket: key}
}

func notComplete(sum int) error {
	return &ValidationError{Err: ErrDistributionNotComplete, Sum: sum}
}

func duplicateQuestion(id string) error {
	return &ValidationError{Err: ErrDuplicateQuestionID, QuestionID: id}
}
