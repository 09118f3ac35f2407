package confidence

import (
	"math"
	"strings"

	"github.com/m-mizutani/harrier/pkg/model"
)

// notInCorpusPhrases mark answers that admit the knowledge base has no
// coverage; those answers get confidence 0 regardless of similarity.
var notInCorpusPhrases = []string{
	"not covered in the knowledge base",
	"not in the knowledge base",
	"no information",
	"cannot find",
}

// groundingPhrases indicate the answer cites the retrieved material.
var groundingPhrases = []string{
	"according to",
	"kb-",
	"knowledge base",
	"documented in",
	"the procedure states",
	"as outlined in",
	"per the documentation",
}

const shortAnswerLength = 50

// Score derives answer confidence from retrieval similarity and surface
// features of the answer text. Similarity bands are calibrated to an
// embedding space where average cosine of 0.25+ already indicates strong
// topical overlap, so a linear mapping would undersell good matches.
func Score(hits []*model.RetrievalHit, answer string) float64 {
	lower := strings.ToLower(answer)
	for _, phrase := range notInCorpusPhrases {
		if strings.Contains(lower, phrase) {
			return 0
		}
	}

	var avg, best float64
	strong := 0
	if len(hits) > 0 {
		var sum float64
		for _, hit := range hits {
			sum += hit.Similarity
			if hit.Similarity > best {
				best = hit.Similarity
			}
			if hit.Similarity > 0.25 {
				strong++
			}
		}
		avg = sum / float64(len(hits))
	}

	score := baseScore(avg)

	if strong >= 2 {
		score += 0.06
	}
	if strong >= 3 {
		score += 0.04
	}
	if best > 0.40 {
		score += 0.05
	}
	if countGrounding(lower) >= 2 {
		score += 0.04
	}

	if len(answer) < shortAnswerLength {
		score -= 0.10
		if score < 0.50 {
			score = 0.50
		}
	}

	if avg >= 0.25 && score < 0.80 {
		score = 0.80
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return math.Round(score*100) / 100
}

func baseScore(avg float64) float64 {
	switch {
	case avg >= 0.35:
		return 0.95
	case avg >= 0.30:
		return 0.88
	case avg >= 0.25:
		return 0.82
	case avg >= 0.20:
		return 0.72
	case avg >= 0.15:
		return 0.60
	default:
		return math.Max(avg*2.5, 0.40)
	}
}

func countGrounding(lowerAnswer string) int {
	count := 0
	for _, phrase := range groundingPhrases {
		if strings.Contains(lowerAnswer, phrase) {
			count++
		}
	}
	return count
}
