package segment

// QualityReport summarizes how well a set of chunks covers its source text.
// It is diagnostic only; nothing in the pipeline branches on it.
type QualityReport struct {
	ChunkCount  int     `json:"chunk_count"`
	Coverage    float64 `json:"coverage"`
	AvgLength   float64 `json:"avg_length"`
	MinLength   int     `json:"min_length"`
	MaxLength   int     `json:"max_length"`
	EmptyChunks int     `json:"empty_chunks"`
}

// AnalyzeQuality computes coverage (total chunk characters over original
// length, expected near 1.0) and basic length statistics.
func AnalyzeQuality(chunks []string, original string) QualityReport {
	report := QualityReport{ChunkCount: len(chunks)}
	if len(chunks) == 0 {
		return report
	}

	total := 0
	report.MinLength = len(chunks[0])
	for _, c := range chunks {
		n := len(c)
		total += n
		if n == 0 {
			report.EmptyChunks++
		}
		if n < report.MinLength {
			report.MinLength = n
		}
		if n > report.MaxLength {
			report.MaxLength = n
		}
	}
	report.AvgLength = float64(total) / float64(len(chunks))
	if len(original) > 0 {
		report.Coverage = float64(total) / float64(len(original))
	}
	return report
}
