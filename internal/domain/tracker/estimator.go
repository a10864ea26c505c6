package tracker

import "github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"

// accelerationMinDays: no trend is estimated inside the first week.
const accelerationMinDays = 7

// updateArtistMetrics recomputes the derived rate metrics after every play.
//
// PlayRate is the simple average since first listen. Acceleration is a
// two-segment estimate: the milestone history tells us how many plays had
// accumulated by the lifetime midpoint, and the difference between the
// second-half and first-half rates, normalized by lifetime length, gives
// plays/day². Deliberately crude; it is a trend indicator, not a derivative.
func updateArtistMetrics(p *model.ArtistProgress, ts int64) {
	days := model.DaysSince(p.FirstListenDate, ts)
	p.Metrics.PlayRate = float64(p.TotalPlays) / float64(days)

	if days <= accelerationMinDays || len(p.Milestones) == 0 {
		// "No detectable trend yet", not "unknown".
		p.Metrics.AccelerationRate = 0
		return
	}

	midPoint := days / 2

	// Plays reached by the midpoint, per the ordered milestone history.
	playsAtMidpoint := int64(-1)
	for i := range p.Milestones {
		if p.Milestones[i].DaysSinceFirstListen > midPoint {
			break
		}
		playsAtMidpoint = p.Milestones[i].Milestone
	}
	if playsAtMidpoint < 0 {
		p.Metrics.AccelerationRate = 0
		return
	}

	firstHalfRate := float64(playsAtMidpoint) / float64(midPoint)
	secondHalfRate := float64(p.TotalPlays-playsAtMidpoint) / float64(days-midPoint)
	p.Metrics.AccelerationRate = (secondHalfRate - firstHalfRate) / float64(days)
}
