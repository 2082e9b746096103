package analysis

// DimensionScore is one scored dimension with its generated feedback text
type DimensionScore struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Details holds the three per-dimension scores
type Details struct {
	Pitch         DimensionScore `json:"pitch"`
	Rhythm        DimensionScore `json:"rhythm"`
	Pronunciation DimensionScore `json:"pronunciation"`
}

// Result is the immutable output of one analysis run. It is the only value
// that outlives the pipeline invocation; intermediate signals, feature
// sequences and alignments are discarded with the request.
type Result struct {
	OriginalClipID  string  `json:"originalClipId"`
	UserClipID      string  `json:"userClipId"`
	SimilarityScore float64 `json:"similarityScore"`
	Feedback        string  `json:"feedback"`
	AnalysisDetails Details `json:"analysisDetails"`
}
