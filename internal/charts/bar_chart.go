package charts

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"

	"github.com/spacesedan/sentiscope/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	EMOTION_TITLE  = "All Emotion Predictions"
	EMOTION_XLABEL = "Emotion"

	HATE_SPEECH_TITLE  = "Hate Speech Prediction Scores"
	HATE_SPEECH_XLABEL = "Category"

	Y_LABEL = "Confidence"

	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

var (
	barWidth = vg.Points(28)

	SkyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	Salmon  = color.RGBA{R: 250, G: 128, B: 114, A: 255}
)

var ErrNoScores = errors.New("no scores to plot")

// BarChartSVG draws one bar per label, in the order given, on a fixed [0,1]
// confidence axis and returns the SVG document.
func BarChartSVG(title, xLabel string, scores []models.LabelScore, fill color.Color) ([]byte, error) {
	if len(scores) == 0 {
		return nil, ErrNoScores
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = Y_LABEL

	values := make(plotter.Values, len(scores))
	labels := make([]string, len(scores))
	for i, s := range scores {
		values[i] = s.Score
		labels[i] = s.Label
	}

	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = fill
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(labels...)

	// Add widens the axes to the data, so the fixed range is set afterwards.
	p.Y.Min = 0
	p.Y.Max = 1

	writer, err := p.WriterTo(chartWidth, chartHeight, "svg")
	if err != nil {
		return nil, fmt.Errorf("failed to create svg writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI embeds an SVG document so it can be used directly as an image source.
func DataURI(svg []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

func EmotionChart(prediction models.Prediction) ([]byte, error) {
	return BarChartSVG(EMOTION_TITLE, EMOTION_XLABEL, prediction.Scores, SkyBlue)
}

func HateSpeechChart(prediction models.Prediction) ([]byte, error) {
	return BarChartSVG(HATE_SPEECH_TITLE, HATE_SPEECH_XLABEL, prediction.Scores, Salmon)
}
