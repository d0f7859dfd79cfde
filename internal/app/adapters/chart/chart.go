package chart

import (
	"bytes"
	"fmt"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"image/color"
	"math"
	"redditslacker/internal/app/ports"
)

var (
	barColor     = color.RGBA{R: 0x3a, G: 0xa3, B: 0xe3, A: 0xff}
	pointColor   = color.RGBA{R: 0x00, G: 0x73, B: 0xa3, A: 0xb0}
	averageColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	lineColor    = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

const timeFormat = "2006-01-02"

// Renderer draws the three-panel summary PNG: comments per subreddit, karma
// per comment over time and cumulative comment karma.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

func New() *Renderer {
	return &Renderer{Width: 11 * vg.Inch, Height: 12 * vg.Inch}
}

func (r *Renderer) Render(s ports.SummarySeries) ([]byte, error) {
	subs, err := subredditPlot(s)
	if err != nil {
		return nil, fmt.Errorf("subreddit panel: %w", err)
	}
	karma, err := karmaPlot(s)
	if err != nil {
		return nil, fmt.Errorf("karma panel: %w", err)
	}
	cumulative, err := cumulativePlot(s)
	if err != nil {
		return nil, fmt.Errorf("cumulative panel: %w", err)
	}

	img := vgimg.New(r.Width, r.Height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      3,
		Cols:      1,
		PadTop:    vg.Centimeter / 2,
		PadBottom: vg.Centimeter / 2,
		PadLeft:   vg.Centimeter / 2,
		PadRight:  vg.Centimeter / 2,
		PadY:      vg.Centimeter,
	}

	plots := [][]*plot.Plot{{subs}, {karma}, {cumulative}}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func subredditPlot(s ports.SummarySeries) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Comments per subreddit for /u/%s", s.Username)
	p.Y.Label.Text = "Comments"
	p.Add(plotter.NewGrid())

	if len(s.Subreddits) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(s.Subreddits))
	names := make([]string, len(s.Subreddits))
	for i, sc := range s.Subreddits {
		values[i] = float64(sc.Count)
		names[i] = sc.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, err
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

func karmaPlot(s ports.SummarySeries) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Karma per comment"
	p.Y.Label.Text = "Karma"
	p.X.Tick.Marker = plot.TimeTicks{Format: timeFormat}
	p.Add(plotter.NewGrid())

	if len(s.Points) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(s.Points))
	for i, pt := range s.Points {
		xys[i].X = float64(pt.At.Unix())
		xys[i].Y = pt.Karma
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  pointColor,
			Radius: glyphRadius(s.Points[i].Length),
			Shape:  draw.CircleGlyph{},
		}
	}

	avg := s.AverageKarma
	line := plotter.NewFunction(func(float64) float64 { return avg })
	line.Color = averageColor
	line.Width = vg.Points(1.5)

	p.Add(sc, line)
	p.Legend.Add(fmt.Sprintf("average %.1f", avg), line)
	p.Legend.Top = true
	return p, nil
}

// glyphRadius grows with the square root of the comment length, capped so a
// wall of text does not cover the panel.
func glyphRadius(length int) vg.Length {
	r := 1.5 + math.Sqrt(float64(max(length, 0)))/6
	return vg.Points(math.Min(r, 9))
}

func cumulativePlot(s ports.SummarySeries) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cumulative comment karma"
	p.Y.Label.Text = "Karma"
	p.X.Tick.Marker = plot.TimeTicks{Format: timeFormat}
	p.Add(plotter.NewGrid())

	if len(s.Cumulative) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(s.Cumulative))
	for i, pt := range s.Cumulative {
		xys[i].X = float64(pt.At.Unix())
		xys[i].Y = pt.Karma
	}

	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.Color = lineColor
	l.Width = vg.Points(2)

	p.Add(l)
	return p, nil
}
