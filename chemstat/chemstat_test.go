/*
 * chemstat_test.go, part of chemfeat.
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
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/internal/toy"
	"github.com/rmera/chemfeat/store"
	v3 "github.com/rmera/chemfeat/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//ar1 returns a series x_t = phi*x_{t-1} + noise.
func ar1(n int, phi float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	ret := make([]float64, n)
	for i := 1; i < n; i++ {
		ret[i] = phi*ret[i-1] + rng.NormFloat64()
	}
	return ret
}

func TestCrossCorrMem(Te *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 50
	x, y := make([]float64, n), make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()
		y[i] = rng.Float64() + 0.3*x[i]
	}
	got := CrossCorrMem(x, y, nil, nil)
	require.Len(Te, got, 2*n)
	mx, sx := stat.MeanStdDev(x, nil)
	my, sy := stat.MeanStdDev(y, nil)
	want := make([]float64, n)
	for k := range want {
		for j := 0; j+k < n; j++ {
			want[k] += (x[j+k] - mx) * (y[j] - my)
		}
		want[k] /= sx * sy * float64(n)
	}
	if diff := cmp.Diff(want, got[:n], cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		Te.Errorf("cross-correlation (-direct +fft):\n%s", diff)
	}
}

func TestAutoCorrelation(Te *testing.T) {
	x := ar1(50000, 0.8, 2)
	acf, err := AutoCorrelation(x, 3)
	require.NoError(Te, err)
	require.Len(Te, acf, 4)
	assert.InDelta(Te, 1, acf[0], 1e-12)
	assert.InDelta(Te, 0.8, acf[1], 0.02)
	assert.InDelta(Te, 0.64, acf[2], 0.02)
	//for an AR(1) process the integrated time is (1+phi)/(2(1-phi)).
	long, err := AutoCorrelation(x, 200)
	require.NoError(Te, err)
	assert.InDelta(Te, 4.5, CorrelationTime(long), 0.5)

	short, err := AutoCorrelation([]float64{1, 2, 3}, 10)
	require.NoError(Te, err)
	assert.Len(Te, short, 3)

	_, err = AutoCorrelation(x, -1)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	_, err = AutoCorrelation([]float64{1}, 1)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = AutoCorrelation([]float64{2, 2, 2}, 1)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
}

func TestFeatureACF(Te *testing.T) {
	a, b := ar1(3000, 0.5, 3), ar1(1000, 0.5, 4)
	A := mat.NewDense(len(a), 2, nil)
	A.SetCol(0, a)
	B := mat.NewDense(len(b), 2, nil)
	B.SetCol(0, b)
	B.SetCol(1, b)
	S, err := store.New([]string{"a", "b"}, A, B)
	require.NoError(Te, err)

	acf, err := FeatureACF(S, 0, 5)
	require.NoError(Te, err)
	acfa, _ := AutoCorrelation(a, 5)
	acfb, _ := AutoCorrelation(b, 5)
	for k := range acf {
		assert.InDelta(Te, (3*acfa[k]+acfb[k])/4, acf[k], 1e-12)
	}
	//column 1 is constant in the first trajectory, so only the second counts.
	acf, err = FeatureACF(S, 1, 5)
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, acfb, acf, 1e-12)

	_, err = FeatureACF(S, 2, 5)
	assert.True(Te, errors.Is(err, chem.ErrOutOfRange))
	C, _ := store.New(nil, mat.NewDense(3, 1, []float64{1, 1, 1}))
	_, err = FeatureACF(C, 0, 2)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
}

func TestTrajCorrelation(Te *testing.T) {
	top, ref := toy.Peptide(2)
	frames := toy.Frames(ref, 200, 0.3, 1, 0.05, 5)
	mol, err := chem.NewMolecule(frames, top, nil)
	require.NoError(Te, err)
	lastz := func(c *v3.Matrix) float64 { return c.At(c.NVecs()-1, 2) }
	got, err := TrajCorrelation(mol, nil, lastz, nil)
	require.NoError(Te, err)
	series := make([]float64, len(frames))
	for i, f := range frames {
		series[i] = lastz(f)
	}
	want := CrossCorrMem(series, series, nil, nil)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		Te.Errorf("trajectory autocorrelation (-want +got):\n%s", diff)
	}
	require.NoError(Te, mol.InitRead())
	other, err := chem.NewMolecule(frames[:10], top, nil)
	require.NoError(Te, err)
	_, err = TrajCorrelation(mol, other, lastz, lastz)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))

	require.NoError(Te, mol.InitRead())
	rmsd := RMSDCorrFunc(ref, chem.SelectNames(top, "N", "CA", "C")...)
	assert.InDelta(Te, 0.0, rmsd(ref), 1e-8)
	acf, err := TrajCorrelation(mol, nil, rmsd, nil)
	require.NoError(Te, err)
	//standard deviations are unbiased, so this is (n-1)/n.
	assert.InDelta(Te, 1.0, acf[0], 0.01)
}
