package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/charts"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
)

const (
	PAGE_TITLE    = "Emotion & Hate Speech Detection"
	EMPTY_WARNING = "Please enter some text."
	FAILED_ERROR  = "Analysis failed. Please try again."
	SOFTMAX_NOTE  = "Hate speech scores are normalized across categories and sum to 100%."
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

type pageView struct {
	Title   string
	Text    string
	Warning string
	Error   string
	Result  *resultView
}

type scoreView struct {
	Label   string
	Percent string
}

type resultView struct {
	TopEmotion   string
	Emotions     []scoreView
	EmotionChart template.URL

	TopHateSpeech        string
	TopHateSpeechPercent string
	HateSpeech           []scoreView
	HateSpeechChart      template.URL
	HateSpeechNote       string

	Sentiment *sentimentView
}

type sentimentView struct {
	Overall  string
	Compound string
	Scores   []scoreView
}

func newPageView(text string) pageView {
	return pageView{Title: PAGE_TITLE, Text: text}
}

func scoreViews(p models.Prediction) []scoreView {
	views := make([]scoreView, len(p.Scores))
	for i, s := range p.Scores {
		views[i] = scoreView{Label: s.Label, Percent: analysis.FormatPercent(s.Score)}
	}
	return views
}

func newResultView(r *analysis.Result, hateSpeechNote string) (*resultView, error) {
	emotionSVG, err := charts.EmotionChart(r.Emotion)
	if err != nil {
		return nil, fmt.Errorf("emotion chart: %w", err)
	}
	hateSVG, err := charts.HateSpeechChart(r.HateSpeech)
	if err != nil {
		return nil, fmt.Errorf("hate speech chart: %w", err)
	}

	view := &resultView{
		TopEmotion:           r.Emotion.TopLabel,
		Emotions:             scoreViews(r.Emotion),
		EmotionChart:         template.URL(charts.DataURI(emotionSVG)),
		TopHateSpeech:        r.HateSpeech.TopLabel,
		TopHateSpeechPercent: analysis.FormatPercent(r.HateSpeech.TopScore),
		HateSpeech:           scoreViews(r.HateSpeech),
		HateSpeechChart:      template.URL(charts.DataURI(hateSVG)),
		HateSpeechNote:       hateSpeechNote,
	}

	if r.Sentiment != nil {
		view.Sentiment = &sentimentView{
			Overall:  sentiment.CompoundLabel(r.Sentiment.Compound),
			Compound: fmt.Sprintf("%.2f", r.Sentiment.Compound),
			Scores:   scoreViews(*r.Sentiment),
		}
	}
	return view, nil
}
