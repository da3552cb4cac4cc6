/*
 * vamp.go, part of chemfeat.
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

//Package vamp scores sets of features by how much of the slow dynamics of a system
//they capture, using the variational approach for Markov processes (VAMP).
//
//A Model is fitted on training feature matrices (one per trajectory) at a given lag
//time, and scored on test matrices. The VAMP-2 score of a model on its own
//training data is 1 plus the sum of its squared singular values. The 1 comes from the
//constant singular function, which all models share, so scores go from 1 (no kinetic
//information) to dim+1.
package vamp

import (
	"math"

	chem "github.com/rmera/chemfeat"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Model contains the dim leading singular functions of the Koopman operator,
//estimated from training data.
type Model struct {
	lag   int
	width int
	eps   float64
	mean0 []float64
	meant []float64
	u     *mat.Dense //width x dim, left singular functions in feature space.
	v     *mat.Dense //width x dim, right singular functions.
	sv    []float64
}

//moments holds the mean-free instantaneous and time-lagged covariances of a set of trajectories.
type moments struct {
	c00   *mat.SymDense
	c0t   *mat.Dense
	ctt   *mat.SymDense
	mean0 []float64
	meant []float64
	n     int
}

//width checks that all the matrices in data have the same number of columns, and returns it.
func width(caller string, data []*mat.Dense) (int, error) {
	if len(data) == 0 {
		return 0, chem.NewError(chem.ErrConfiguration, caller, "no feature matrices given")
	}
	w := -1
	for i, X := range data {
		if X == nil {
			return 0, chem.NewError(chem.ErrConfiguration, caller, "feature matrix %d is nil", i)
		}
		_, c := X.Dims()
		if w < 0 {
			w = c
		} else if c != w {
			return 0, chem.NewError(chem.ErrDataMismatch, caller, "feature matrix %d has %d columns, the first one has %d", i, c, w)
		}
	}
	return w, nil
}

//centered returns a copy of the rows [from,to) of X with mean subtracted from each row.
func centered(X *mat.Dense, from, to int, mean []float64) *mat.Dense {
	_, c := X.Dims()
	ret := mat.DenseCopyOf(X.Slice(from, to, 0, c))
	for i := 0; i < to-from; i++ {
		floats.Sub(ret.RawRowView(i), mean)
	}
	return ret
}

//covariances pools the instantaneous (rows 0 to T-lag) and time-lagged (rows lag to T)
//parts of every trajectory longer than lag. The means of the two parts are estimated
//separately.
func covariances(caller string, data []*mat.Dense, lag, w int) (*moments, error) {
	m := &moments{mean0: make([]float64, w), meant: make([]float64, w)}
	for _, X := range data {
		r, _ := X.Dims()
		for i := 0; i < r-lag; i++ {
			floats.Add(m.mean0, X.RawRowView(i))
			floats.Add(m.meant, X.RawRowView(i+lag))
			m.n++
		}
	}
	if m.n == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, caller, "no trajectory is longer than the lag time %d", lag)
	}
	floats.Scale(1/float64(m.n), m.mean0)
	floats.Scale(1/float64(m.n), m.meant)
	m.c00 = mat.NewSymDense(w, nil)
	m.ctt = mat.NewSymDense(w, nil)
	m.c0t = mat.NewDense(w, w, nil)
	var sym mat.SymDense
	var tmp mat.Dense
	for _, X := range data {
		r, _ := X.Dims()
		if r <= lag {
			continue
		}
		x0 := centered(X, 0, r-lag, m.mean0)
		xt := centered(X, lag, r, m.meant)
		sym.Reset()
		sym.SymOuterK(1, x0.T())
		m.c00.AddSym(m.c00, &sym)
		sym.Reset()
		sym.SymOuterK(1, xt.T())
		m.ctt.AddSym(m.ctt, &sym)
		tmp.Reset()
		tmp.Mul(x0.T(), xt)
		m.c0t.Add(m.c0t, &tmp)
	}
	scale := 1 / float64(m.n)
	m.c00.ScaleSym(scale, m.c00)
	m.ctt.ScaleSym(scale, m.ctt)
	m.c0t.Scale(scale, m.c0t)
	return m, nil
}

//invSqrt returns W such that W^T C W is the identity in the subspace of the eigenvectors
//of C with eigenvalues larger than eps. W has one column per kept eigenvalue, largest first.
func invSqrt(caller string, c mat.Symmetric, eps float64) (*mat.Dense, error) {
	var eig mat.EigenSym
	if !eig.Factorize(c, true) {
		return nil, chem.NewError(chem.ErrDataMismatch, caller, "eigendecomposition of covariance matrix failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	keep := make([]int, 0, len(vals))
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] > eps {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, caller, "the features have no variance above %g", eps)
	}
	n := c.SymmetricDim()
	W := mat.NewDense(n, len(keep), nil)
	for j, k := range keep {
		s := 1 / math.Sqrt(vals[k])
		for i := 0; i < n; i++ {
			W.Set(i, j, vecs.At(i, k)*s)
		}
	}
	return W, nil
}

//Fit estimates a VAMP model with dim singular functions from the feature matrices in train,
//(one per trajectory, all of the same width) at the given lag time, in frames.
//Trajectories not longer than lag don't contribute, but at least one must.
func Fit(train []*mat.Dense, lag, dim int, opts ...Option) (*Model, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	w, err := width("vamp.Fit", train)
	if err != nil {
		return nil, err
	}
	if dim < 1 || dim > w {
		return nil, chem.NewError(chem.ErrConfiguration, "vamp.Fit", "can't keep %d singular functions of %d features", dim, w)
	}
	if lag < 1 {
		return nil, chem.NewError(chem.ErrConfiguration, "vamp.Fit", "lag time must be positive, got %d", lag)
	}
	m, err := covariances("vamp.Fit", train, lag, w)
	if err != nil {
		return nil, err
	}
	W0, err := invSqrt("vamp.Fit", m.c00, o.eps)
	if err != nil {
		return nil, err
	}
	Wt, err := invSqrt("vamp.Fit", m.ctt, o.eps)
	if err != nil {
		return nil, err
	}
	var K, tmp mat.Dense
	tmp.Mul(W0.T(), m.c0t)
	K.Mul(&tmp, Wt)
	var svd mat.SVD
	if !svd.Factorize(&K, mat.SVDThin) {
		return nil, chem.NewError(chem.ErrDataMismatch, "vamp.Fit", "singular value decomposition of the Koopman matrix failed")
	}
	sv := svd.Values(nil)
	if dim > len(sv) {
		zap.L().Warn("Fewer linearly independent features than requested singular functions", zap.Int("requested", dim), zap.Int("available", len(sv)))
		dim = len(sv)
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	ku, _ := U.Dims()
	kv, _ := V.Dims()
	M := &Model{lag: lag, width: w, eps: o.eps, mean0: m.mean0, meant: m.meant, sv: sv[:dim]}
	M.u = mat.NewDense(w, dim, nil)
	M.u.Mul(W0, U.Slice(0, ku, 0, dim))
	M.v = mat.NewDense(w, dim, nil)
	M.v.Mul(Wt, V.Slice(0, kv, 0, dim))
	zap.L().Debug("VAMP model fitted", zap.Int("lag", lag), zap.Int("frames", m.n), zap.Float64s("singular values", M.sv))
	return M, nil
}

//Lag returns the lag time, in frames, of the model.
func (M *Model) Lag() int { return M.lag }

//Dim returns the number of singular functions kept.
func (M *Model) Dim() int { return len(M.sv) }

//SingularValues returns the singular values of the model in decreasing order.
func (M *Model) SingularValues() []float64 {
	return append([]float64(nil), M.sv...)
}

//Timescales returns the implied timescales -lag*dt/ln(sigma) of the singular values.
//Singular values of 1 or larger give +Inf.
func (M *Model) Timescales(dt float64) []float64 {
	ret := make([]float64, len(M.sv))
	for i, s := range M.sv {
		if s >= 1 {
			ret[i] = math.Inf(1)
			continue
		}
		ret[i] = -float64(M.lag) * dt / math.Log(s)
	}
	return ret
}

//Transform projects the frames in X onto the left singular functions of the model.
//It returns a matrix with one row per frame and Dim() columns.
func (M *Model) Transform(X *mat.Dense) (*mat.Dense, error) {
	r, c := X.Dims()
	if c != M.width {
		return nil, chem.NewError(chem.ErrDataMismatch, "Model.Transform", "model fitted with %d features, data has %d", M.width, c)
	}
	ret := mat.NewDense(r, M.Dim(), nil)
	ret.Mul(centered(X, 0, r, M.mean0), M.u)
	return ret, nil
}

//Score returns the VAMP-r score, r being 1 or 2, of the model on the test feature matrices.
//The covariances of the test data are computed with the test data's own means.
func (M *Model) Score(test []*mat.Dense, r int) (float64, error) {
	if r != 1 && r != 2 {
		return 0, chem.NewError(chem.ErrConfiguration, "Model.Score", "only VAMP-1 and VAMP-2 scores are supported, got r=%d", r)
	}
	w, err := width("Model.Score", test)
	if err != nil {
		return 0, err
	}
	if w != M.width {
		return 0, chem.NewError(chem.ErrDataMismatch, "Model.Score", "model fitted with %d features, test data has %d", M.width, w)
	}
	m, err := covariances("Model.Score", test, M.lag, w)
	if err != nil {
		return 0, err
	}
	A := project(M.u, m.c00)
	C := project(M.v, m.ctt)
	var B, tmp mat.Dense
	tmp.Mul(M.u.T(), m.c0t)
	B.Mul(&tmp, M.v)
	WA, err := invSqrt("Model.Score", A, M.eps)
	if err != nil {
		return 0, err
	}
	WC, err := invSqrt("Model.Score", C, M.eps)
	if err != nil {
		return 0, err
	}
	var K mat.Dense
	tmp.Reset()
	tmp.Mul(WA.T(), &B)
	K.Mul(&tmp, WC)
	if r == 2 {
		f := mat.Norm(&K, 2)
		return 1 + f*f, nil
	}
	var svd mat.SVD
	if !svd.Factorize(&K, mat.SVDNone) {
		return 0, chem.NewError(chem.ErrDataMismatch, "Model.Score", "singular value decomposition failed")
	}
	return 1 + floats.Sum(svd.Values(nil)), nil
}

//project returns the symmetric matrix P^T C P.
func project(P *mat.Dense, C *mat.SymDense) *mat.SymDense {
	var tmp mat.Dense
	tmp.Mul(C, P)
	_, k := P.Dims()
	ret := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			ret.SetSym(i, j, mat.Dot(P.ColView(i), tmp.ColView(j)))
		}
	}
	return ret
}

//Score2 fits a model on train and returns its VAMP-2 score on test.
func Score2(train, test []*mat.Dense, lag, dim int, opts ...Option) (float64, error) {
	M, err := Fit(train, lag, dim, opts...)
	if err != nil {
		return 0, err
	}
	return M.Score(test, 2)
}
