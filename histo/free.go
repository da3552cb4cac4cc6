/*
 * free.go, part of chemfeat.
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

package histo

import (
	"math"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/store"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Dividers returns nbins+1 equally spaced dividers from min to max. The last divider is
//nudged up so that max itself falls in the last bin. If min == max, the range is
//widened by 0.5 on each side.
func Dividers(min, max float64, nbins int) ([]float64, error) {
	if nbins < 1 {
		return nil, chem.NewError(chem.ErrConfiguration, "histo.Dividers", "%d bins requested", nbins)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || max < min {
		return nil, chem.NewError(chem.ErrConfiguration, "histo.Dividers", "invalid range [%g, %g]", min, max)
	}
	if min == max {
		min -= 0.5
		max += 0.5
	}
	ret := make([]float64, nbins+1)
	floats.Span(ret, min, max)
	ret[nbins] = math.Nextafter(max, math.Inf(1))
	return ret, nil
}

//Hist2D is a two dimensional histogram. Bin i,j counts the points with the
//x value in the i-th x bin and the y value in the j-th y bin.
type Hist2D struct {
	xdiv, ydiv []float64
	counts     *mat.Dense
	total      int
}

//NewHist2D returns an empty 2D histogram with the given dividers, each of which
//must have at least 2 elements, in increasing order.
func NewHist2D(xdiv, ydiv []float64) (*Hist2D, error) {
	for _, d := range [][]float64{xdiv, ydiv} {
		if len(d) < 2 || !sortedStrict(d) {
			return nil, chem.NewError(chem.ErrConfiguration, "histo.NewHist2D", "dividers must be at least 2 increasing values")
		}
	}
	return &Hist2D{
		xdiv:   append([]float64(nil), xdiv...),
		ydiv:   append([]float64(nil), ydiv...),
		counts: mat.NewDense(len(xdiv)-1, len(ydiv)-1, nil),
	}, nil
}

func sortedStrict(s []float64) bool {
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return false
		}
	}
	return true
}

//Histogram2D builds a 2D histogram of the points (x[i], y[i]) with nbins bins in each
//dimension, spanning the range of the data.
func Histogram2D(x, y []float64, nbins int) (*Hist2D, error) {
	if len(x) != len(y) {
		return nil, chem.NewError(chem.ErrDataMismatch, "histo.Histogram2D", "%d x values and %d y values", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, "histo.Histogram2D", "no data")
	}
	xdiv, err := Dividers(floats.Min(x), floats.Max(x), nbins)
	if err != nil {
		return nil, err
	}
	ydiv, err := Dividers(floats.Min(y), floats.Max(y), nbins)
	if err != nil {
		return nil, err
	}
	H, err := NewHist2D(xdiv, ydiv)
	if err != nil {
		return nil, err
	}
	return H, H.AddData(x, y)
}

//bin returns the bin of v given the dividers div, or -1 if v is out of range.
func bin(div []float64, v float64) int {
	if v < div[0] || v >= div[len(div)-1] || math.IsNaN(v) {
		return -1
	}
	//first divider larger than v, minus one.
	lo, hi := 0, len(div)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if div[mid] <= v {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

//Add counts the point x,y. It returns false if the point is out of the
//histogram's range, in which case it is not counted.
func (H *Hist2D) Add(x, y float64) bool {
	i, j := bin(H.xdiv, x), bin(H.ydiv, y)
	if i < 0 || j < 0 {
		return false
	}
	H.counts.Set(i, j, H.counts.At(i, j)+1)
	H.total++
	return true
}

//AddData counts the points (x[i], y[i]).
func (H *Hist2D) AddData(x, y []float64) error {
	if len(x) != len(y) {
		return chem.NewError(chem.ErrDataMismatch, "histo.Hist2D.AddData", "%d x values and %d y values", len(x), len(y))
	}
	for i := range x {
		H.Add(x[i], y[i])
	}
	return nil
}

//Dims returns the number of x and y bins.
func (H *Hist2D) Dims() (int, int) { return H.counts.Dims() }

//Total returns the number of points counted.
func (H *Hist2D) Total() int { return H.total }

//XDividers returns a copy of the x dividers.
func (H *Hist2D) XDividers() []float64 { return append([]float64(nil), H.xdiv...) }

//YDividers returns a copy of the y dividers.
func (H *Hist2D) YDividers() []float64 { return append([]float64(nil), H.ydiv...) }

//Counts returns a copy of the counts.
func (H *Hist2D) Counts() *mat.Dense { return mat.DenseCopyOf(H.counts) }

//Density returns the probability density estimated from the histogram, i.e. the counts
//divided by the total and by the area of each bin, so the density integrates to 1.
func (H *Hist2D) Density() *mat.Dense {
	r, c := H.Dims()
	ret := mat.NewDense(r, c, nil)
	if H.total == 0 {
		return ret
	}
	ret.Apply(func(i, j int, v float64) float64 {
		area := (H.xdiv[i+1] - H.xdiv[i]) * (H.ydiv[j+1] - H.ydiv[j])
		return v / (float64(H.total) * area)
	}, H.counts)
	return ret
}

//FreeEnergy returns -kT ln(p) for each element of the probability (or density) matrix p,
//shifted so the minimum is 0. Elements with p==0 get +Inf.
func FreeEnergy(p mat.Matrix, kT float64) (*mat.Dense, error) {
	if kT <= 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "histo.FreeEnergy", "kT must be positive, got %g", kT)
	}
	ret := mat.DenseCopyOf(p)
	data := ret.RawMatrix().Data
	for i, v := range data {
		if v < 0 || math.IsNaN(v) {
			return nil, chem.NewError(chem.ErrDataMismatch, "histo.FreeEnergy", "invalid probability %g at element %d", v, i)
		}
	}
	if floats.Max(data) == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, "histo.FreeEnergy", "all probabilities are zero")
	}
	freeEnergy(data, kT)
	return ret, nil
}

//freeEnergy replaces each p in data with -kT ln(p) - min, in place.
func freeEnergy(data []float64, kT float64) {
	min := math.Inf(1)
	for i, v := range data {
		data[i] = -kT * math.Log(v)
		min = math.Min(min, data[i])
	}
	if math.IsInf(min, 1) {
		return
	}
	floats.AddConst(-min, data)
}

//FeatureHistograms returns a 1 x Dim() matrix with one histogram of nbins bins
//for each feature in S, over all trajectories. Each histogram spans the range of
//its feature, and its ID is the feature column.
func FeatureHistograms(S *store.Store, nbins int) (*Matrix, error) {
	M := NewMatrix(1, S.Dim(), nil)
	for j := 0; j < S.Dim(); j++ {
		col, err := S.Column(j)
		if err != nil {
			return nil, err
		}
		div, err := Dividers(floats.Min(col), floats.Max(col), nbins)
		if err != nil {
			return nil, chem.ErrDecorate(err, "histo.FeatureHistograms")
		}
		M.NewHisto(0, j, div, col, j)
	}
	return M, nil
}
