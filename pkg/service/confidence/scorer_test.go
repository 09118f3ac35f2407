package confidence_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/service/confidence"
)

func hits(similarities ...float64) []*model.RetrievalHit {
	hs := make([]*model.RetrievalHit, len(similarities))
	for i, s := range similarities {
		hs[i] = &model.RetrievalHit{
			Chunk:      &model.KnowledgeChunk{ID: model.NewChunkID()},
			Similarity: s,
		}
	}
	return hs
}

const longAnswer = "Restart the libvirt daemon, then confirm the bridge interface is up and the VM boots from the expected volume."

func TestScore(t *testing.T) {
	t.Run("not in corpus admission zeroes confidence", func(t *testing.T) {
		score := confidence.Score(hits(0.5, 0.5), "This topic is not covered in the knowledge base.")
		gt.V(t, score).Equal(0.0)
	})

	t.Run("high average similarity with long answer", func(t *testing.T) {
		score := confidence.Score(hits(0.40, 0.40), longAnswer)
		// base 0.95 + two strong hits 0.06 + best over 0.40 is not met (0.40 not > 0.40)
		gt.V(t, score).Equal(1.0)
	})

	t.Run("single strong hit", func(t *testing.T) {
		score := confidence.Score(hits(0.41), longAnswer)
		// base 0.95 + best 0.05, clamped to 1.0
		gt.V(t, score).Equal(1.0)
	})

	t.Run("spec shaped scenario at 0.4 similarity", func(t *testing.T) {
		score := confidence.Score(hits(0.4), longAnswer)
		gt.N(t, score).GreaterOrEqual(0.90)
	})

	t.Run("moderate similarity floors at 0.80", func(t *testing.T) {
		score := confidence.Score(hits(0.26), longAnswer)
		gt.N(t, score).GreaterOrEqual(0.80)
	})

	t.Run("weak similarity", func(t *testing.T) {
		score := confidence.Score(hits(0.10, 0.10), longAnswer)
		// base max(0.10*2.5, 0.40) = 0.40, no boosts
		gt.V(t, score).Equal(0.40)
	})

	t.Run("short answer penalty", func(t *testing.T) {
		withPenalty := confidence.Score(hits(0.22), "Reboot it.")
		without := confidence.Score(hits(0.22), longAnswer)
		gt.N(t, withPenalty).Less(without)
		gt.V(t, withPenalty).Equal(0.62)
	})

	t.Run("short answer penalty floors at 0.50", func(t *testing.T) {
		score := confidence.Score(hits(0.05), "Reboot it.")
		gt.V(t, score).Equal(0.50)
	})

	t.Run("grounding phrases boost", func(t *testing.T) {
		grounded := confidence.Score(hits(0.22),
			"According to KB-0001 the daemon must be restarted before the bridge interface comes back up.")
		plain := confidence.Score(hits(0.22), longAnswer)
		gt.V(t, plain).Equal(0.72)
		gt.V(t, grounded).Equal(0.76)
	})

	t.Run("three strong hits stack boosts", func(t *testing.T) {
		score := confidence.Score(hits(0.28, 0.27, 0.26), longAnswer)
		// base 0.82 + 0.06 + 0.04 = 0.92
		gt.V(t, score).Equal(0.92)
	})

	t.Run("no hits yields base floor", func(t *testing.T) {
		score := confidence.Score(nil, longAnswer)
		gt.V(t, score).Equal(0.40)
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		score := confidence.Score(hits(0.17), longAnswer)
		gt.V(t, score).Equal(0.60)
	})
}
