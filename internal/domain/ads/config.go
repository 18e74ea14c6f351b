package ads

// Config tunes the match pipeline.
type Config struct {
	// EmbeddingModel is the model used to embed physician questions.
	EmbeddingModel string
	// SimilarityThreshold is the minimum cosine similarity for a category to
	// count as matched. Deliberately low: the fill-rate policy prefers some
	// ad over no ad.
	SimilarityThreshold float64
}
