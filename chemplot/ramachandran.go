/*
 * ramachandran.go, part of chemfeat.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"fmt"
	"image/color"
	"math"

	chem "github.com/rmera/chemfeat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func basicRamaPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Phi"
	p.Y.Label.Text = "Psi"
	//Constant axes
	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = -180
	p.Y.Max = 180
	p.Add(plotter.NewGrid())
	return p
}

//NewRamaPlotParts returns a Ramachandran plot for the phi/psi pairs in data, which contains one
//slice of pairs per residue (usually, the values of the residue in each frame of a trajectory).
//Each residue gets its own color. If tag is not nil, it must contain an element, which can be nil,
//for each residue. Points whose indexes are in tag[residue] are highlighted with a different
//glyph (at most 4 points can be tagged).
func NewRamaPlotParts(data [][][]float64, tag [][]int, title string) (*plot.Plot, error) {
	if data == nil {
		return nil, chem.NewError(chem.ErrConfiguration, "chemplot.NewRamaPlotParts", chem.ErrNilData)
	}
	if tag != nil && len(tag) < len(data) {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemplot.NewRamaPlotParts", "%d residues but tags for %d", len(data), len(tag))
	}
	p := basicRamaPlot(title)
	var tagged int
	for key, val := range data {
		r, g, b := colors(key, len(data))
		pts := make(plotter.XYs, 0, len(val))
		for k, v := range val {
			if len(v) < 2 {
				return nil, chem.NewError(chem.ErrDataMismatch, "chemplot.NewRamaPlotParts", "point %d of residue %d has %d values", k, key, len(v))
			}
			if tag != nil && tag[key] != nil && isInInt(tag[key], k) {
				s, err := plotter.NewScatter(plotter.XYs{{X: v[0], Y: v[1]}})
				if err != nil {
					return nil, err
				}
				s.GlyphStyle.Shape, err = getShape(tagged)
				if err != nil {
					return nil, err
				}
				tagged++
				s.GlyphStyle.Radius = vg.Points(4)
				s.GlyphStyle.Color = color.RGBA{R: r, B: b, G: g, A: 255}
				p.Add(s)
				continue
			}
			pts = append(pts, plotter.XY{X: v[0], Y: v[1]})
		}
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = color.RGBA{R: r, B: b, G: g, A: 255}
		p.Add(s)
	}
	return p, nil
}

//RamaPlotParts saves the plot produced by NewRamaPlotParts in plotname. The format is
//given by the extension of plotname.
func RamaPlotParts(data [][][]float64, tag [][]int, title, plotname string) error {
	p, err := NewRamaPlotParts(data, tag, title)
	if err != nil {
		return err
	}
	return save(p, 5*vg.Inch, 5*vg.Inch, plotname)
}

//RamaPlot produces a plot for the ramachandran data (phi and psi dihedrals)
//contained in data, one pair per residue. Data points in tag (maximun 4) are highlighted in the plot.
//The extension must be included in plotname.
func RamaPlot(data [][]float64, tag []int, title, plotname string) error {
	if data == nil {
		return chem.NewError(chem.ErrConfiguration, "chemplot.RamaPlot", chem.ErrNilData)
	}
	parts := make([][][]float64, len(data))
	tags := make([][]int, len(data))
	for key, val := range data {
		parts[key] = [][]float64{val}
		if isInInt(tag, key) {
			tags[key] = []int{0}
		}
	}
	p, err := NewRamaPlotParts(parts, tags, title)
	if err != nil {
		return err
	}
	return save(p, 4*vg.Inch, 4*vg.Inch, plotname)
}

func getShape(tagged int) (draw.GlyphDrawer, error) {
	switch tagged {
	case 0:
		return draw.PyramidGlyph{}, nil
	case 1:
		return draw.CircleGlyph{}, nil
	case 2:
		return draw.SquareGlyph{}, nil
	case 3:
		return draw.CrossGlyph{}, nil
	default:
		return draw.RingGlyph{}, chem.NewError(chem.ErrConfiguration, "chemplot.getShape", "Maximun number of taggable residues is 4")
	}
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var i, f, p, q, t float64
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i = math.Floor(h)
	f = h - i
	p = v * (1 - s)
	q = v * (1 - s*f)
	t = v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r = v
		g = t
		b = p
	case 1:
		r = q
		g = v
		b = p
	case 2:
		r = p
		g = v
		b = t
	case 3:
		r = p
		g = q
		b = v
	case 4:
		r = t
		g = p
		b = v
	default: //case 5
		r = v
		g = p
		b = q
	}
	r = r * conversion
	g = g * conversion
	b = b * conversion
	return uint8(r), uint8(g), uint8(b)
}

//colors returns the key-th of steps colors spread over the hue circle, skipping
//the yellows, which are hard to see on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64((float64(key) * norm) + 20.0)
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return iHVS2RGB(h, 1, 1)
}

func rgba(key, steps int) color.Color {
	r, g, b := colors(key, steps)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

//save writes p to filename, in the format given by the extension.
func save(p *plot.Plot, w, h vg.Length, filename string) error {
	if err := p.Save(w, h, filename); err != nil {
		return chem.NewError(chem.ErrIO, "chemplot.save", "%s: %s", filename, err.Error())
	}
	return nil
}

//label returns a legend-friendly version of s.
func label(i int, s string) string {
	if s == "" {
		return fmt.Sprintf("f%d", i)
	}
	return s
}
