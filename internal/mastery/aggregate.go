package mastery

import "studyroom/internal/models"

// Aggregate computes per-concept statistics across every member that reported
// the concept. Variance is population variance: the mean of squared deviations.
func Aggregate(individual map[string]map[string]float64) map[string]models.ConceptStats {
	scores := make(map[string][]float64)
	for _, mastery := range individual {
		for concept, score := range mastery {
			scores[concept] = append(scores[concept], score)
		}
	}

	out := make(map[string]models.ConceptStats, len(scores))
	for concept, vals := range scores {
		stats := models.ConceptStats{Min: vals[0], Max: vals[0]}
		sum := 0.0
		for _, v := range vals {
			sum += v
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
		}
		stats.Mean = sum / float64(len(vals))

		sq := 0.0
		for _, v := range vals {
			d := v - stats.Mean
			sq += d * d
		}
		stats.Variance = sq / float64(len(vals))
		out[concept] = stats
	}
	return out
}
