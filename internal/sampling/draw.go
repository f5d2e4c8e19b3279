package sampling

import (
	"math/rand"
)

// Candidate is one email eligible for sampling, with the confidence of its
// latest completed classification. Nil confidence means the email has never
// been successfully classified.
type Candidate struct {
	EmailID    int64
	Confidence *float64
}

// Drawn is one selected email with its assigned stratum.
type Drawn struct {
	EmailID int64
	Stratum string
}

// strataOrder fixes iteration order so draws are reproducible; map
// iteration would not be.
var strataOrder = []string{StratumLow, StratumHigh, StratumUnclassified}

// Stratify assigns a candidate to its stratum. Confidence strictly below
// the threshold is low.
func Stratify(c Candidate, threshold float64) string {
	if c.Confidence == nil {
		return StratumUnclassified
	}
	if *c.Confidence < threshold {
		return StratumLow
	}
	return StratumHigh
}

// Draw selects up to size candidates, allocated across strata proportionally
// to stratum population. The selection is driven entirely by the seed:
// identical candidates (in identical order), size, seed, and threshold
// always produce the same draw.
func Draw(candidates []Candidate, size int, seed int64, threshold float64) []Drawn {
	if size <= 0 || len(candidates) == 0 {
		return []Drawn{}
	}

	buckets := map[string][]int64{}
	for _, c := range candidates {
		stratum := Stratify(c, threshold)
		buckets[stratum] = append(buckets[stratum], c.EmailID)
	}

	total := len(candidates)
	if size > total {
		size = total
	}

	quotas := map[string]int{}
	allocated := 0
	for _, stratum := range strataOrder {
		q := size * len(buckets[stratum]) / total
		quotas[stratum] = q
		allocated += q
	}

	// Hand out the integer-division remainder to strata with spare members,
	// in fixed order.
	for allocated < size {
		for _, stratum := range strataOrder {
			if allocated == size {
				break
			}
			if quotas[stratum] < len(buckets[stratum]) {
				quotas[stratum]++
				allocated++
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	drawn := make([]Drawn, 0, size)

	for _, stratum := range strataOrder {
		ids := buckets[stratum]
		if len(ids) == 0 {
			continue
		}

		rng.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})

		for _, id := range ids[:quotas[stratum]] {
			drawn = append(drawn, Drawn{EmailID: id, Stratum: stratum})
		}
	}

	return drawn
}
