package scoring

import "time"

// Score fuses validation evidence into the three-dimensional scoring result.
// It is pure and total: it never performs I/O, never returns an error, and
// absent inputs simply zero out the categories they would have fed.
func Score(in Input) *Result {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	res := &Result{
		Compliance:   scoreCompliance(in.Card),
		Trust:        scoreTrust(in.Card, in.Signatures, now, nil),
		Availability: scoreAvailability(in.Probes, in.LiveTested),
	}
	res.Recommendation = recommend(res)
	return res
}
