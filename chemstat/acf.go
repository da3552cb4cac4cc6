/*
 * acf.go, part of chemfeat.
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

package chemstat

import (
	"errors"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/store"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//AutoCorrelation returns the normalized autocorrelation function of x for lags 0 to maxlag,
//so the first element is always 1. maxlag is reduced to len(x)-1 if larger.
func AutoCorrelation(x []float64, maxlag int) ([]float64, error) {
	if maxlag < 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "chemstat.AutoCorrelation", "negative maximum lag %d", maxlag)
	}
	if len(x) < 2 {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemstat.AutoCorrelation", "series of length %d", len(x))
	}
	if floats.Min(x) == floats.Max(x) {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemstat.AutoCorrelation", "constant series")
	}
	maxlag = min(maxlag, len(x)-1)
	c := CrossCorrMem(x, x, nil, nil)
	ret := c[:maxlag+1]
	floats.Scale(1/ret[0], ret)
	return ret, nil
}

//FeatureACF returns the autocorrelation function of the feature in column col of S,
//for lags 0 to maxlag. The functions of the trajectories are averaged, each weighted by its
//number of frames, and trajectories shorter than a lag don't contribute to it.
//Trajectories where the feature is constant are skipped.
func FeatureACF(S *store.Store, col, maxlag int) ([]float64, error) {
	if col < 0 || col >= S.Dim() {
		return nil, chem.NewError(chem.ErrOutOfRange, "chemstat.FeatureACF", "column %d requested, the store has %d", col, S.Dim())
	}
	if maxlag < 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "chemstat.FeatureACF", "negative maximum lag %d", maxlag)
	}
	sum := make([]float64, maxlag+1)
	w := make([]float64, maxlag+1)
	for i := 0; i < S.Len(); i++ {
		x := mat.Col(nil, col, S.Traj(i))
		acf, err := AutoCorrelation(x, maxlag)
		if errors.Is(err, chem.ErrDataMismatch) {
			zap.L().Debug("Skipping trajectory in autocorrelation", zap.Int("trajectory", i), zap.Int("column", col), zap.Error(err))
			continue
		} else if err != nil {
			return nil, err
		}
		n := float64(len(x))
		for k, v := range acf {
			sum[k] += v * n
			w[k] += n
		}
	}
	if w[0] == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemstat.FeatureACF", "feature %d is constant in every trajectory", col)
	}
	ret := make([]float64, 0, maxlag+1)
	for k := range sum {
		if w[k] == 0 {
			break
		}
		ret = append(ret, sum[k]/w[k])
	}
	return ret, nil
}

//CorrelationTime returns the integrated correlation time, in lags, of the normalized autocorrelation
//function acf: 0.5 plus the sum of acf from lag 1 up to its first non-positive value.
func CorrelationTime(acf []float64) float64 {
	t := 0.5
	if len(acf) < 2 {
		return t
	}
	for _, v := range acf[1:] {
		if v <= 0 {
			break
		}
		t += v
	}
	return t
}
