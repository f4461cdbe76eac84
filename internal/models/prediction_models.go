package models

// LabelScore is one class of a classifier output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Prediction is the output of a single classifier for one text: every label's
// probability in model order plus the arg-max label.
type Prediction struct {
	Task     string       `json:"task"`
	TopLabel string       `json:"top_label"`
	TopScore float64      `json:"top_score"`
	Scores   []LabelScore `json:"scores"`
	Compound float64      `json:"compound,omitempty"`
}

// NewPrediction builds a Prediction and selects its top label with ArgMax.
func NewPrediction(task string, scores []LabelScore) Prediction {
	p := Prediction{
		Task:   task,
		Scores: scores,
	}
	if i, ok := ArgMax(scores); ok {
		p.TopLabel = scores[i].Label
		p.TopScore = scores[i].Score
	}
	return p
}

// ArgMax returns the index of the highest score. Ties go to the first label
// encountered, so the result follows the order the model reported labels in.
func ArgMax(scores []LabelScore) (int, bool) {
	if len(scores) == 0 {
		return -1, false
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Score > scores[best].Score {
			best = i
		}
	}
	return best, true
}

func (p Prediction) Probabilities() map[string]float64 {
	probs := make(map[string]float64, len(p.Scores))
	for _, s := range p.Scores {
		probs[s.Label] = s.Score
	}
	return probs
}

func (p Prediction) Total() float64 {
	var total float64
	for _, s := range p.Scores {
		total += s.Score
	}
	return total
}

func (p Prediction) Labels() []string {
	labels := make([]string, len(p.Scores))
	for i, s := range p.Scores {
		labels[i] = s.Label
	}
	return labels
}
