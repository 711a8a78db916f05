// Package domain implements the conductor ice-shedding risk engine.
//
// # Pipeline
//
// One evaluation takes a [WeatherReading] and a [ConductorGeometry]:
//
//	reading ──► IceModel ──► IceEstimate ──┬──► Classifier ──► shedding probability
//	   │                                   └──► bounce physics ──► amplitude
//	   └──► SheddingHeuristic (advisory)
//
// and the risk combiner reduces the partial labels to one [RiskAssessment].
//
// # Ice accretion
//
// Two models are kept because the risk thresholds were tuned against each:
//
//	empirical:      k·wind·humidity·(1−|T|/10)·(hours/24),  k = 0.05
//	vapor_pressure: h·(es−ea)·0.62/(cp·pa)·3600,           h = 0.24, cp = 1005, pa = 101325
//
// where es and ea are the saturation vapour pressure over ice and the ambient
// vapour pressure (Pa). The empirical temperature factor is not clamped and
// goes negative beyond ±10°C; both models clamp the final thickness at zero
// and round to 2 decimals.
//
// # Bounce
//
//	bounce = 0.02 · ice(mm) · diameter(mm) · span(m)/100  [− 0.05 · wind]
//
// clamped at zero. The damping term uses the wind speed of the current reading.
//
// # Labels
//
//	probability: > 0.7 High | > 0.4 Medium | otherwise Low
//	bounce:      > 1.0 m High | > 0.5 m Medium | otherwise Low
//
// Partial labels combine by taking the most severe. Unknown is produced only
// when the classifier fails and ranks below every known label. In that case
// the heuristic label takes the classifier's place in the combination and the
// assessment is flagged, so a failure never reads as a plain Low.
package domain
