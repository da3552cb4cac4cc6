/*
 * compare.go, part of chemfeat.
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
	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/store"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//TrajectoryHistograms returns a Len() x Dim() matrix with the histogram of each feature (column)
//in each trajectory (row) of S. The histograms of a column share nbins bins spanning the
//range of the feature over all the trajectories. The ID of each histogram is its feature column.
func TrajectoryHistograms(S *store.Store, nbins int) (*Matrix, error) {
	M := NewMatrix(S.Len(), S.Dim(), nil)
	for j := 0; j < S.Dim(); j++ {
		col, err := S.Column(j)
		if err != nil {
			return nil, chem.ErrDecorate(err, "histo.TrajectoryHistograms")
		}
		div, err := Dividers(floats.Min(col), floats.Max(col), nbins)
		if err != nil {
			return nil, chem.ErrDecorate(err, "histo.TrajectoryHistograms")
		}
		for i := 0; i < S.Len(); i++ {
			M.NewHisto(i, j, div, mat.Col(nil, j, S.Traj(i)), j)
		}
	}
	return M, nil
}

func normalizeNonEmpty(D *Data) error {
	if D.Total() == 0 {
		return chem.NewError(chem.ErrDataMismatch, "histo.normalizeNonEmpty", "empty histogram for feature %d", D.ID())
	}
	D.Normalize()
	return nil
}

//Convergence compares the distribution of each feature in each trajectory of S with the
//distribution of the same feature over all the trajectories. Element i,j of the result is the
//total variation distance between the normalized histograms (nbins bins) of feature j in
//trajectory i and in the whole store: 0 for identical distributions, 1 for distributions that
//don't overlap at all.
func Convergence(S *store.Store, nbins int) ([][]float64, error) {
	T, err := TrajectoryHistograms(S, nbins)
	if err != nil {
		return nil, chem.ErrDecorate(err, "histo.Convergence")
	}
	all := NewMatrix(S.Len(), S.Dim(), nil)
	diff := NewMatrix(S.Len(), S.Dim(), nil)
	for j := 0; j < S.Dim(); j++ {
		col, err := S.Column(j)
		if err != nil {
			return nil, chem.ErrDecorate(err, "histo.Convergence")
		}
		div := T.View(0, j).CopyDividers()
		whole := NewData(div, col, j)
		for i := 0; i < S.Len(); i++ {
			all.d[all.rc2i(i, j)] = whole
			diff.NewHisto(i, j, div, nil, j)
		}
	}
	if err := T.ToAll(normalizeNonEmpty); err != nil {
		return nil, err
	}
	//the histograms in a column of all are the same, Normalize does nothing after the first call.
	if err := all.ToAll(normalizeNonEmpty); err != nil {
		return nil, err
	}
	if err := MatrixCombine(func(a, b, dest *Data) { dest.Sub(a, b, true) }, T, all, diff); err != nil {
		return nil, chem.ErrDecorate(err, "histo.Convergence")
	}
	return diff.FromAll(func(D *Data) (float64, error) { return D.Sum() / 2, nil })
}
