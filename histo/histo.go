/*
 * histo.go, part of chemfeat.
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

//Package histo provides histograms of feature values: one dimensional histograms (Data),
//matrices of them (Matrix), two dimensional histograms (Hist2D), and free energies
//derived from them.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	chem "github.com/rmera/chemfeat"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//MatrixCombine combines 2 matrices element-wise using the function f, which should take 2 histograms to be
//combined and one more where the result of the operation is stored.
func MatrixCombine(f func(a, b, dest *Data), a, b, dest *Matrix) error {
	if a.rows != b.rows || a.cols != b.cols || a.rows != dest.rows || a.cols != dest.cols {
		return chem.NewError(chem.ErrDataMismatch, "histo.MatrixCombine", "Ill-formed matrices for combining")
	}
	//This should work if they are both nil
	if !(a.dividers == nil && b.dividers == nil) && !floats.Equal(a.dividers, b.dividers) {
		return chem.NewError(chem.ErrDataMismatch, "histo.MatrixCombine", "Matrices don't have the same dividers")
	}
	for i, v := range dest.d {
		f(a.d[i], b.d[i], v)
	}
	return nil
}

//Matrix is a matrix of histograms
type Matrix struct {
	rows, cols int       //total
	d          []*Data   //row-major
	dividers   []float64 //if not nil, all histograms have the same dividers
}

//NewMatrix returns a new matrix of *Data with r and c rows and column
//and dividers dividers. Dividers can be nil, in which case, elements
//of the matrix will not be forced to have the same dividers
func NewMatrix(r, c int, dividers []float64) *Matrix {
	ret := new(Matrix)
	ret.rows = r
	ret.cols = c
	ret.d = make([]*Data, r*c)
	ret.dividers = dividers
	return ret
}

func (M *Matrix) Dims() (int, int) {
	return M.rows, M.cols
}

//CopyDividers copies the dividers shared by all the histograms of the matrix, or returns nil
//if there are none.
func (M *Matrix) CopyDividers(dest ...[]float64) []float64 {
	if M.dividers == nil {
		return nil
	}
	d := getCopySlice(len(M.dividers), dest...)
	return floats.ScaleTo(d, 1, M.dividers)
}

func (M *Matrix) String() string {
	ret := fmt.Sprintf("rows:%d cols:%d | Data:\n", M.rows, M.cols)
	t := make([]string, 0, len(M.d))
	for _, v := range M.d {
		t = append(t, v.String())
	}
	return ret + strings.Join(t, "\n\n")
}

type jsonMatrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMatrix{Rows: M.rows, Cols: M.cols, D: M.d, Dividers: M.dividers})
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a jsonMatrix
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.D) != a.Rows*a.Cols {
		return chem.NewError(chem.ErrDataMismatch, "histo.Matrix.UnmarshalJSON", "%d histograms for a %dx%d matrix", len(a.D), a.Rows, a.Cols)
	}
	M.rows = a.Rows
	M.cols = a.Cols
	M.d = a.D
	M.dividers = a.Dividers
	return nil
}

//returns the index in the []*Data slice of a matrix given
//the row and column indexes.
func (M *Matrix) rc2i(r, c int) int {
	M.Check(r, c, true)
	return M.cols*r + c
}

//Fill fills the matrix with empty histograms
//If the matrix has a non-nil delimiters slice,
//that slice is used for all the histograms created
func (M *Matrix) Fill() {
	for i := 0; i < M.rows; i++ {
		for j := 0; j < M.cols; j++ {
			M.NewHisto(i, j, M.dividers, nil, M.rc2i(i, j))
		}
	}
}

//Check checks if the given row and column indexes are within range.
//if pan is given and true, it panics if either is out of range,
//otherwise, it returns an error.
func (M *Matrix) Check(r, c int, pan ...bool) error {
	var err error
	if r < 0 || r >= M.rows {
		err = chem.NewError(chem.ErrOutOfRange, "histo.Matrix.Check", "Row %d out of range", r)
	}
	if c < 0 || c >= M.cols {
		err = chem.NewError(chem.ErrOutOfRange, "histo.Matrix.Check", "Column %d out of range", c)
	}
	if err != nil && len(pan) > 0 && pan[0] {
		panic(err.Error())
	}
	return err
}

//NewHisto Puts a new histogram in the r,c position in the matrix. Dividers can be nil, in which case, the matrix
//should have its dividers. If there are no dividers the function will panic. If they don't match, the
//dividers of the matrix are used. rawdata can also be nil, in which case, an empty histogram
//will be put in the position.
func (M *Matrix) NewHisto(r, c int, dividers []float64, rawdata []float64, ID ...int) {
	if dividers == nil {
		if M.dividers == nil {
			panic("histo.Matrix.NewHisto: dividers not given, and the matrix has none")
		}
		dividers = M.dividers
	} else if M.dividers != nil && !floats.Equal(M.dividers, dividers) {
		zap.L().Warn("Histogram dividers don't match the dividers of the matrix, the matrix's dividers will be used", zap.Int("row", r), zap.Int("col", c))
		dividers = M.dividers
	}
	M.d[M.rc2i(r, c)] = NewData(dividers, rawdata, ID...)
}

//View Returns a view of the histogram in the r,c position in the matrix
func (M *Matrix) View(r, c int) *Data {
	return M.d[M.rc2i(r, c)]
}

//AddData adds one or more data points to the histogram in the r,c position in the matrix
func (M *Matrix) AddData(r, c int, point ...float64) {
	M.d[M.rc2i(r, c)].AddData(point...)
}

//NormalizeAll normalizes all the histograms in the matrix
func (M *Matrix) NormalizeAll() {
	for _, v := range M.d {
		v.Normalize()
	}
}

//UnNormalizeAll un-normalizes all the histograms in the matrix
func (M *Matrix) UnNormalizeAll() {
	for _, v := range M.d {
		v.UnNormalize()
	}
}

//FromAll applies the f function to each element in the matrix, the results are returned as
//a [][]float64. Also returns error upon failure, or nil.
func (M *Matrix) FromAll(f func(D *Data) (float64, error)) ([][]float64, error) {
	r := make([][]float64, M.rows)
	var err error
	for i := 0; i < M.rows; i++ {
		r[i] = make([]float64, M.cols)
		for j := 0; j < M.cols; j++ {
			r[i][j], err = f(M.d[M.rc2i(i, j)])
			if err != nil {
				return nil, fmt.Errorf("histo.Matrix.FromAll: Error at %d, %d: %w", i, j, err)
			}
		}
	}
	return r, nil
}

//ToAll applies the f function to each element in the matrix. Returns error upon failure, or nil.
func (M *Matrix) ToAll(f func(D *Data) error) error {
	for i := 0; i < M.rows; i++ {
		for j := 0; j < M.cols; j++ {
			if err := f(M.d[M.rc2i(i, j)]); err != nil {
				return fmt.Errorf("histo.Matrix.ToAll: Error at %d, %d: %w", i, j, err)
			}
		}
	}
	return nil
}

//Data is a one dimensional histogram.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{
		ID:         D.id,
		Normalized: D.normalized,
		Total:      D.total,
		Dividers:   D.dividers,
		Histo:      D.histo,
	})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return chem.NewError(chem.ErrDataMismatch, "histo.Data.UnmarshalJSON", "%d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

//ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

//String prints a -hopefully- pretty string representation of
//the histogram. The representation uses 3 lines of text
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.dividers)-1)
	h := make([]string, 0, len(D.dividers)-1)
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//NewData returns a new histogram from the dividers and rawdata given
//rawdata can be nil. In that case, an empty histogram is created.
//if an ID for the histogram is given, it will be set. If not, the ID will
//be set to -1. rawdata is not modified.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	d := new(Data)
	//copied so nobody changes it from outside
	d.dividers = append([]float64(nil), dividers...)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//AddData adds the given data point(s) to the histogram. Points outside the dividers
//are not counted.
func (D *Data) AddData(point ...float64) {
	var norma bool
	if D.normalized {
		norma = true
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		if v < D.dividers[0] || v >= D.dividers[last] {
			continue
		}
		j := sort.SearchFloat64s(D.dividers, v)
		//SearchFloat64s returns the index of the divider equal or larger than v.
		if D.dividers[j] > v {
			j--
		}
		D.histo[j]++
		D.total++
	}
	//if it was normalized, we should return it to that state
	if norma {
		D.Normalize()
	}
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize normalizes the histogram so its bins add up to 1.
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

//normalizes or un-normalizes the histogram depending
//on whether normalize is true
func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	floats.Scale(n, D.histo)
}

//Total returns the number of points counted in the histogram.
func (D *Data) Total() int {
	return D.total
}

//CopyDividers copies the dividers of the histogram
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	return floats.ScaleTo(d, 1, D.dividers)
}

//Copy copies the bins of the histogram
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	return floats.ScaleTo(d, 1, D.histo)
}

//View returns the bins of the histogram, without copying them.
func (D *Data) View() []float64 {
	return D.histo
}

//Centers returns the centers of the bins.
func (D *Data) Centers() []float64 {
	ret := make([]float64, len(D.histo))
	for i := range ret {
		ret[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return ret
}

//checkDividers panics if a and b don't have the same dividers.
func checkDividers(caller string, a, b *Data) {
	if !floats.Equal(a.dividers, b.dividers) {
		panic(caller + ": Dividers must match in combined histograms")
	}
}

//Add adds the histograms a and b putting the result in the receiver.
func (D *Data) Add(a, b *Data) {
	checkDividers("histo.Data.Add", a, b)
	D.dividers = a.CopyDividers(D.dividers)
	if len(D.histo) != len(a.histo) {
		D.histo = make([]float64, len(a.histo))
	}
	floats.AddTo(D.histo, a.histo, b.histo)
	D.total = a.total + b.total
}

//Sub substract the histograms a and b puting the results in the receiver
//if abs is given and true (only the first element is considered) the absolute
//value of the difference is used.
func (D *Data) Sub(a, b *Data, abs ...bool) {
	checkDividers("histo.Data.Sub", a, b)
	D.dividers = a.CopyDividers(D.dividers)
	if len(D.histo) != len(a.histo) {
		D.histo = make([]float64, len(a.histo))
	}
	floats.SubTo(D.histo, a.histo, b.histo)
	if len(abs) > 0 && abs[0] {
		for i, v := range D.histo {
			D.histo[i] = math.Abs(v)
		}
	}
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//ReHisto replaces the contents of the histogram with the histogram of rawdata
//with the given dividers. rawdata is not modified.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	rawdata = append([]float64(nil), rawdata...)
	sort.Float64s(rawdata)
	//stat.Histogram just panics instead of omitting the values that are off limits
	//so we remove them here before the call.
	maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(rawdata, dividers[0])
	rawdata = rawdata[mini:maxi]
	D.dividers = append(D.dividers[:0], dividers...)
	D.total = len(rawdata)
	D.normalized = false
	D.histo = stat.Histogram(nil, D.dividers, rawdata, nil)
}

//FreeEnergy returns -kT ln(p) for the normalized histogram, shifted so the
//lowest value is 0. Empty bins get +Inf.
func (D *Data) FreeEnergy(kT float64) ([]float64, error) {
	if kT <= 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "histo.Data.FreeEnergy", "kT must be positive, got %g", kT)
	}
	if D.total == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, "histo.Data.FreeEnergy", "empty histogram")
	}
	ret := D.Copy()
	if !D.normalized {
		floats.Scale(1/float64(D.total), ret)
	}
	freeEnergy(ret, kT)
	return ret, nil
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		//floats.ScaleTo wants both slices to _match_
		return dest[0][:N]
	}
	return make([]float64, N)
}
