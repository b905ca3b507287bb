package sampling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// DistributionMap maps a bucket key to a percentage. An empty map places no
// constraint on its axis.
type DistributionMap map[string]int

// BucketShare is one entry of a distribution in list form.
type BucketShare struct {
	Key     string `json:"key" yaml:"key"`
	Percent int    `json:"percent" yaml:"percent"`
}

// Keys returns the bucket keys in ascending order.
func (d DistributionMap) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Sum returns the total of all percentages.
func (d DistributionMap) Sum() int {
	sum := 0
	for _, p := range d {
		sum += p
	}
	return sum
}

// ParseDistribution builds a DistributionMap from list entries, rejecting
// repeated keys and percentages outside 0..100.
func ParseDistribution(shares []BucketShare) (DistributionMap, error) {
	dist := make(DistributionMap, len(shares))
	for _, s := range shares {
		if _, dup := dist[s.Key]; dup {
			return nil, &ValidationError{Err: ErrDuplicateBucket, Bucket: s.Key}
		}
		if s.Percent < 0 || s.Percent > 100 {
			return nil, &ValidationError{Err: ErrInvalidPercentage, Bucket: s.Key}
		}
		dist[s.Key] = s.Percent
	}
	return dist, nil
}

// Validate checks dist against the keys available on its axis. Unknown keys
// are reported before the sum so the caller sees the most specific problem.
func Validate(dist DistributionMap, knownKeys map[string]struct{}) error {
	if len(dist) == 0 {
		return nil
	}

	keys := dist.Keys()
	for _, k := range keys {
		if _, ok := knownKeys[k]; !ok {
			return unknownBucket(k)
		}
	}

	sum := 0
	for _, k := range keys {
		p := dist[k]
		if p < 0 || p > 100 {
			return &ValidationError{Err: ErrInvalidPercentage, Bucket: k}
		}
		sum += p
	}
	if sum != 100 {
		return notComplete(sum)
	}
	return nil
}

// UnmarshalJSON accepts either an object ({"easy": 50, ...}) or a list of
// {"key", "percent"} entries. Repeated keys are rejected in both forms.
func (d *DistributionMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var shares []BucketShare
		if err := json.Unmarshal(data, &shares); err != nil {
			return err
		}
		dist, err := ParseDistribution(shares)
		if err != nil {
			return err
		}
		*d = dist
		return nil
	}

	// Decode the object token by token; encoding/json silently keeps the
	// last of two equal keys.
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("distribution: expected object or array, got %v", tok)
	}

	var shares []BucketShare
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("distribution: expected key, got %v", tok)
		}
		var pct int
		if err := dec.Decode(&pct); err != nil {
			return fmt.Errorf("distribution %q: %w", key, err)
		}
		shares = append(shares, BucketShare{Key: key, Percent: pct})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	dist, err := ParseDistribution(shares)
	if err != nil {
		return err
	}
	*d = dist
	return nil
}
