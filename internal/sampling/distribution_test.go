package sampling

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func TestValidate(t *testing.T) {
	known := keySet("easy", "medium", "hard")

	tests := []struct {
		name       string
		dist       DistributionMap
		known      map[string]struct{}
		wantErr    error
		wantBucket string
		wantSum    int
	}{
		{
			name:  "complete distribution",
			dist:  DistributionMap{"easy": 40, "medium": 35, "hard": 25},
			known: known,
		},
		{
			name:    "sum of 99",
			dist:    DistributionMap{"easy": 40, "medium": 35, "hard": 24},
			known:   known,
			wantErr: ErrDistributionNotComplete,
			wantSum: 99,
		},
		{
			name:    "sum above 100",
			dist:    DistributionMap{"easy": 60, "medium": 60},
			known:   known,
			wantErr: ErrDistributionNotComplete,
			wantSum: 120,
		},
		{
			name:       "bucket missing from pool",
			dist:       DistributionMap{"easy": 50, "medium": 30, "hard": 20},
			known:      keySet("easy", "medium"),
			wantErr:    ErrUnknownBucket,
			wantBucket: "hard",
		},
		{
			name:  "empty map places no constraint",
			dist:  DistributionMap{},
			known: keySet(),
		},
		{
			name:  "nil map places no constraint",
			dist:  nil,
			known: nil,
		},
		{
			name:       "negative percentage",
			dist:       DistributionMap{"easy": 110, "medium": -10},
			known:      known,
			wantErr:    ErrInvalidPercentage,
			wantBucket: "easy",
		},
		{
			name:       "unknown reported before incomplete sum",
			dist:       DistributionMap{"easy": 10, "expert": 10},
			known:      known,
			wantErr:    ErrUnknownBucket,
			wantBucket: "expert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.dist, tt.known)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error should be a *ValidationError")
			assert.Equal(t, tt.wantBucket, verr.Bucket)
			assert.Equal(t, tt.wantSum, verr.Sum)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "distribution does not sum to 100: got 99", notComplete(99).Error())
	assert.Equal(t, `unknown bucket: "hard"`, unknownBucket("hard").Error())
	assert.Equal(t, `duplicate question id: "q1"`, duplicateQuestion("q1").Error())
	assert.Equal(t, "total questions must not be negative", (&ValidationError{Err: ErrInvalidTotal}).Error())
}

func TestParseDistribution(t *testing.T) {
	t.Run("builds map", func(t *testing.T) {
		dist, err := ParseDistribution([]BucketShare{{"easy", 50}, {"medium", 50}})
		require.NoError(t, err)
		assert.Equal(t, DistributionMap{"easy": 50, "medium": 50}, dist)
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := ParseDistribution([]BucketShare{{"easy", 50}, {"easy", 50}})
		assert.ErrorIs(t, err, ErrDuplicateBucket)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := ParseDistribution([]BucketShare{{"easy", 101}})
		assert.ErrorIs(t, err, ErrInvalidPercentage)
	})
}

func TestDistributionMapUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DistributionMap
		wantErr error
	}{
		{name: "object", input: `{"easy": 50, "hard": 50}`, want: DistributionMap{"easy": 50, "hard": 50}},
		{name: "list", input: `[{"key": "A", "percent": 70}, {"key": "B", "percent": 30}]`, want: DistributionMap{"A": 70, "B": 30}},
		{name: "empty object", input: `{}`, want: DistributionMap{}},
		{name: "null", input: `null`, want: nil},
		{name: "duplicate in object", input: `{"easy": 50, "easy": 50}`, wantErr: ErrDuplicateBucket},
		{name: "duplicate in list", input: `[{"key": "A", "percent": 50}, {"key": "A", "percent": 50}]`, wantErr: ErrDuplicateBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got DistributionMap
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("non numeric percentage", func(t *testing.T) {
		var got DistributionMap
		assert.Error(t, json.Unmarshal([]byte(`{"easy": "fifty"}`), &got))
	})
}

func TestDistributionMapKeysSorted(t *testing.T) {
	d := DistributionMap{"medium": 30, "easy": 50, "hard": 20}
	assert.Equal(t, []string{"easy", "hard", "medium"}, d.Keys())
	assert.Equal(t, 100, d.Sum())
}
