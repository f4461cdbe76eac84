package analysis

import (
	"fmt"
	"io"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
)

// FormatPercent renders a probability as a percentage with two decimals.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// WriteReport prints the plain-text listing of a result, in the same layout the
// web page uses.
func WriteReport(w io.Writer, r *Result) error {
	pw := &printer{w: w}

	pw.printf("Emotion Detection\n")
	pw.printf("Top Emotion: %s\n", r.Emotion.TopLabel)
	pw.printf("All Emotion Probabilities:\n")
	pw.listing(r.Emotion)

	pw.printf("\nHate Speech Detection\n")
	pw.printf("Top Hate Speech Category: %s (%s)\n", r.HateSpeech.TopLabel, FormatPercent(r.HateSpeech.TopScore))
	pw.printf("All Hate Speech Probabilities:\n")
	pw.listing(r.HateSpeech)

	if r.Sentiment != nil {
		pw.printf("\nSentiment\n")
		pw.printf("Overall: %s (compound %.2f)\n", sentiment.CompoundLabel(r.Sentiment.Compound), r.Sentiment.Compound)
		pw.listing(*r.Sentiment)
	}
	return pw.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) listing(prediction models.Prediction) {
	for _, s := range prediction.Scores {
		p.printf("- %s: %s\n", s.Label, FormatPercent(s.Score))
	}
}
