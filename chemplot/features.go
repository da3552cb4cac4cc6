/*
 * features.go, part of chemfeat.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chemplot

import (
	"image/color"
	"math"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/histo"
	"github.com/rmera/chemfeat/store"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//NewFeatureHistograms returns a plot with the normalized histograms of all the features in S, overlaid,
//each with nbins bins spanning the range of the feature.
func NewFeatureHistograms(S *store.Store, nbins int, title string) (*plot.Plot, error) {
	M, err := histo.FeatureHistograms(S, nbins)
	if err != nil {
		return nil, err
	}
	labels := S.Labels()
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Feature value"
	p.Y.Label.Text = "Probability density"
	p.Legend.Top = true
	_, cols := M.Dims()
	for j := 0; j < cols; j++ {
		D := M.View(0, j)
		D.Normalize()
		div := D.CopyDividers()
		h := &plotter.Histogram{
			Bins:      make([]plotter.HistogramBin, 0, len(div)-1),
			LineStyle: draw.LineStyle{Color: rgba(j, cols), Width: vg.Points(1)},
		}
		for i, v := range D.View() {
			width := div[i+1] - div[i]
			h.Bins = append(h.Bins, plotter.HistogramBin{Min: div[i], Max: div[i+1], Weight: v / width})
		}
		h.Width = div[1] - div[0]
		p.Add(h)
		p.Legend.Add(label(j, labels[j]), h)
	}
	return p, nil
}

//FeatureHistograms saves the plot produced by NewFeatureHistograms in filename, with the format given
//by the extension.
func FeatureHistograms(S *store.Store, nbins int, title, filename string) error {
	p, err := NewFeatureHistograms(S, nbins, title)
	if err != nil {
		return err
	}
	return save(p, 6*vg.Inch, 4*vg.Inch, filename)
}

//grid is a plotter.GridXYZ over the bins of a 2D histogram. Non-finite values are
//reported as NaN, and ignored for the range of the color scale.
type grid struct {
	x, y []float64 //bin centers
	z    *mat.Dense
}

func newGrid(H *histo.Hist2D, z *mat.Dense) *grid {
	return &grid{x: centers(H.XDividers()), y: centers(H.YDividers()), z: z}
}

func centers(div []float64) []float64 {
	ret := make([]float64, len(div)-1)
	for i := range ret {
		ret[i] = (div[i] + div[i+1]) / 2
	}
	return ret
}

func (g *grid) Dims() (c, r int) { return len(g.x), len(g.y) }

func (g *grid) X(c int) float64 { return g.x[c] }

func (g *grid) Y(r int) float64 { return g.y[r] }

func (g *grid) Z(c, r int) float64 {
	v := g.z.At(c, r)
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

//finite returns the finite values of g.
func (g *grid) finite() []float64 {
	raw := g.z.RawMatrix()
	ret := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		for _, v := range raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols] {
			if !math.IsInf(v, 0) && !math.IsNaN(v) {
				ret = append(ret, v)
			}
		}
	}
	return ret
}

func (g *grid) Min() float64 { return floats.Min(g.finite()) }

func (g *grid) Max() float64 { return floats.Max(g.finite()) }

//capped is a grid where the non-finite values are replaced by a ceiling value, so
//contour lines can be traced around them.
type capped struct {
	*grid
	ceiling float64
}

func (c capped) Z(col, row int) float64 {
	v := c.grid.Z(col, row)
	if math.IsNaN(v) {
		return c.ceiling
	}
	return v
}

//newHeatMap returns a heat map of g, with a color range that is never empty.
func newHeatMap(g *grid, pal palette.Palette) *plotter.HeatMap {
	hm := plotter.NewHeatMap(g, pal)
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	return hm
}

type mono []color.Color

func (m mono) Colors() []color.Color { return m }

func heatPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

//NewDensity2D returns a heat map of the probability density of the points (x[i], y[i]),
//with nbins bins in each dimension.
func NewDensity2D(x, y []float64, nbins int, title, xlabel, ylabel string) (*plot.Plot, error) {
	H, err := histo.Histogram2D(x, y, nbins)
	if err != nil {
		return nil, err
	}
	p := heatPlot(title, xlabel, ylabel)
	p.Add(newHeatMap(newGrid(H, H.Density()), palette.Heat(64, 1)))
	return p, nil
}

//Density2D saves the plot produced by NewDensity2D in filename.
func Density2D(x, y []float64, nbins int, title, xlabel, ylabel, filename string) error {
	p, err := NewDensity2D(x, y, nbins, title, xlabel, ylabel)
	if err != nil {
		return err
	}
	return save(p, 5*vg.Inch, 5*vg.Inch, filename)
}

//NewFreeEnergySurface returns a heat map, with contour lines every kT, of the free energy
//-kT ln(p) of the points (x[i], y[i]), with nbins bins in each dimension. Empty bins are left blank.
func NewFreeEnergySurface(x, y []float64, nbins int, kT float64, title, xlabel, ylabel string) (*plot.Plot, error) {
	H, err := histo.Histogram2D(x, y, nbins)
	if err != nil {
		return nil, err
	}
	F, err := histo.FreeEnergy(H.Density(), kT)
	if err != nil {
		return nil, err
	}
	g := newGrid(H, F)
	p := heatPlot(title, xlabel, ylabel)
	p.Add(newHeatMap(g, palette.Reverse(palette.Heat(64, 1))))
	max := g.Max()
	levels := make([]float64, 0, int(max/kT)+1)
	for l := kT; l < max; l += kT {
		levels = append(levels, l)
	}
	if len(levels) > 0 {
		c := plotter.NewContour(capped{grid: g, ceiling: max + kT}, levels, mono{color.Black})
		p.Add(c)
	}
	return p, nil
}

//FreeEnergySurface saves the plot produced by NewFreeEnergySurface in filename.
func FreeEnergySurface(x, y []float64, nbins int, kT float64, title, xlabel, ylabel, filename string) error {
	p, err := NewFreeEnergySurface(x, y, nbins, kT, title, xlabel, ylabel)
	if err != nil {
		return err
	}
	return save(p, 5*vg.Inch, 5*vg.Inch, filename)
}

type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

//NewScoreVsLag returns a plot of the scores against the lag times, with error bars if errs is not nil.
func NewScoreVsLag(lags []int, scores, errs []float64, title string) (*plot.Plot, error) {
	if len(lags) != len(scores) || (errs != nil && len(errs) != len(scores)) {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemplot.NewScoreVsLag", "%d lags, %d scores, %d errors", len(lags), len(scores), len(errs))
	}
	if len(lags) == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemplot.NewScoreVsLag", "no data")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Lag time (frames)"
	p.Y.Label.Text = "VAMP-2 score"
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, len(lags))
	for i, l := range lags {
		pts[i] = plotter.XY{X: float64(l), Y: scores[i]}
	}
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	l.Color = rgba(0, 1)
	s.GlyphStyle.Color = rgba(0, 1)
	p.Add(l, s)
	if errs != nil {
		yerr := make(plotter.YErrors, len(errs))
		for i, e := range errs {
			yerr[i].Low, yerr[i].High = e, e
		}
		bars, err := plotter.NewYErrorBars(errorPoints{XYs: pts, YErrors: yerr})
		if err != nil {
			return nil, err
		}
		p.Add(bars)
	}
	return p, nil
}

//ScoreVsLag saves the plot produced by NewScoreVsLag in filename.
func ScoreVsLag(lags []int, scores, errs []float64, title, filename string) error {
	p, err := NewScoreVsLag(lags, scores, errs, title)
	if err != nil {
		return err
	}
	return save(p, 5*vg.Inch, 4*vg.Inch, filename)
}
