/*
 * histo_test.go, part of chemfeat.
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

package histo

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var rawdata = []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}

func TestHistoIO(Te *testing.T) {
	M := NewMatrix(3, 3, []float64{0, 1, 2, 3, 4, 8})
	M.Fill()
	M.NewHisto(0, 1, nil, rawdata)
	j, err := json.Marshal(M)
	require.NoError(Te, err)
	M2 := new(Matrix)
	require.NoError(Te, json.Unmarshal(j, M2))
	r, c := M2.Dims()
	assert.Equal(Te, 3, r)
	assert.Equal(Te, 3, c)
	assert.Equal(Te, M.View(0, 1).View(), M2.View(0, 1).View())
	assert.Equal(Te, M.CopyDividers(), M2.CopyDividers())
	assert.Equal(Te, M.View(2, 2).ID(), M2.View(2, 2).ID())
	assert.Error(Te, json.Unmarshal([]byte(`{"rows":2,"cols":2,"data":[]}`), new(Matrix)))
}

func TestData(Te *testing.T) {
	div := []float64{0, 1, 2, 3, 4, 8}
	orig := append([]float64(nil), rawdata...)
	D := NewData(div, rawdata, 7)
	assert.Equal(Te, orig, rawdata, "raw data was modified")
	assert.Equal(Te, 7, D.ID())
	//0,0 | 1 x6 | 2,2 | 3,3,3,3,3,3,3.5 | 4,5,6,7,6,5,5,7,5
	want := []float64{2, 6, 2, 7, 9}
	assert.Equal(Te, want, D.View())
	assert.Equal(Te, 26, D.Total())

	A := NewData(div, nil)
	A.AddData(rawdata...)
	assert.Equal(Te, want, A.View())
	assert.Equal(Te, D.Total(), A.Total())

	D.Normalize()
	D.Normalize()
	assert.InDelta(Te, 1, D.Sum(), 1e-12)
	D.AddData(0.5)
	assert.True(Te, D.Normalized())
	assert.InDelta(Te, 1, D.Sum(), 1e-12)
	D.UnNormalize()
	assert.InDeltaSlice(Te, []float64{3, 6, 2, 7, 9}, D.View(), 1e-9)

	var S Data
	S.Add(A, A)
	assert.Equal(Te, []float64{4, 12, 4, 14, 18}, S.View())
	S.Sub(A, &S, true)
	assert.Equal(Te, want, S.View())
	assert.Equal(Te, []float64{0.5, 1.5, 2.5, 3.5, 6}, A.Centers())
	assert.Panics(Te, func() { S.Add(A, NewData([]float64{0, 1}, nil)) })
}

func TestDividers(Te *testing.T) {
	d, err := Dividers(0, 1, 4)
	require.NoError(Te, err)
	require.Len(Te, d, 5)
	assert.Equal(Te, []float64{0, 0.25, 0.5, 0.75}, d[:4])
	assert.Greater(Te, d[4], 1.0)
	assert.Equal(Te, 3, bin(d, 1))
	assert.Equal(Te, 0, bin(d, 0))
	assert.Equal(Te, -1, bin(d, -0.1))

	d, err = Dividers(2, 2, 2)
	require.NoError(Te, err)
	assert.Equal(Te, 1.5, d[0])
	for _, c := range [][3]float64{{0, 1, 0}, {1, 0, 3}, {math.NaN(), 1, 3}} {
		_, err = Dividers(c[0], c[1], int(c[2]))
		assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	}
}

func TestHist2D(Te *testing.T) {
	x := []float64{0, 0.1, 0.9, 1, 1, 0.5}
	y := []float64{0, 0, 1, 1, 0.2, 0.6}
	H, err := Histogram2D(x, y, 2)
	require.NoError(Te, err)
	want := mat.NewDense(2, 2, []float64{
		2, 0,
		1, 3,
	})
	assert.True(Te, mat.Equal(want, H.Counts()), "%v", mat.Formatted(H.Counts()))
	assert.Equal(Te, 6, H.Total())
	assert.False(Te, H.Add(2, 0))
	assert.Equal(Te, 6, H.Total())

	//the density integrates to 1.
	D := H.Density()
	xd, yd := H.XDividers(), H.YDividers()
	var integral float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			integral += D.At(i, j) * (xd[i+1] - xd[i]) * (yd[j+1] - yd[j])
		}
	}
	assert.InDelta(Te, 1, integral, 1e-9)

	_, err = Histogram2D(x, y[:2], 2)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = NewHist2D([]float64{1, 0}, []float64{0, 1})
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
}

func TestFreeEnergy(Te *testing.T) {
	p := mat.NewDense(1, 3, []float64{0.5, 0.25, 0})
	F, err := FreeEnergy(p, 2)
	require.NoError(Te, err)
	assert.Equal(Te, 0.0, F.At(0, 0))
	assert.InDelta(Te, 2*math.Ln2, F.At(0, 1), 1e-12)
	assert.True(Te, math.IsInf(F.At(0, 2), 1))
	//the input is not modified.
	assert.Equal(Te, 0.5, p.At(0, 0))

	D := NewData([]float64{0, 1, 2, 3}, []float64{0.5, 0.5, 1.5, 0.1, 1.2, 0.3})
	f, err := D.FreeEnergy(1)
	require.NoError(Te, err)
	require.Len(Te, f, 3)
	if diff := cmp.Diff([]float64{0, math.Ln2}, f[:2], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		Te.Errorf("free energy (-want +got):\n%s", diff)
	}
	assert.True(Te, math.IsInf(f[2], 1))

	_, err = FreeEnergy(p, 0)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	_, err = FreeEnergy(mat.NewDense(1, 2, []float64{-1, 1}), 1)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = FreeEnergy(mat.NewDense(1, 2, nil), 1)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
}

func TestFeatureHistograms(Te *testing.T) {
	S, err := store.New([]string{"a", "b"},
		mat.NewDense(3, 2, []float64{0, 10, 1, 10, 2, 10}),
		mat.NewDense(2, 2, []float64{3, 10, 4, 10}))
	require.NoError(Te, err)
	M, err := FeatureHistograms(S, 5)
	require.NoError(Te, err)
	r, c := M.Dims()
	require.Equal(Te, 1, r)
	require.Equal(Te, 2, c)
	assert.Equal(Te, []float64{1, 1, 1, 1, 1}, M.View(0, 0).View())
	assert.Equal(Te, 1, M.View(0, 1).ID())
	//a constant feature goes into a single bin.
	assert.Equal(Te, 5.0, floats.Max(M.View(0, 1).View()))
	_, err = FeatureHistograms(S, 0)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
}

func TestConvergence(Te *testing.T) {
	S, err := store.New([]string{"a", "b"},
		mat.NewDense(2, 2, []float64{0, 10, 1, 10}),
		mat.NewDense(2, 2, []float64{2, 10, 3, 10}))
	require.NoError(Te, err)
	T, err := TrajectoryHistograms(S, 2)
	require.NoError(Te, err)
	r, c := T.Dims()
	require.Equal(Te, 2, r)
	require.Equal(Te, 2, c)
	assert.Equal(Te, []float64{2, 0}, T.View(0, 0).View())
	assert.Equal(Te, []float64{0, 2}, T.View(1, 0).View())
	assert.Equal(Te, T.View(0, 0).CopyDividers(), T.View(1, 0).CopyDividers())
	assert.Equal(Te, 0, T.View(1, 0).ID())

	conv, err := Convergence(S, 2)
	require.NoError(Te, err)
	want := [][]float64{{0.5, 0}, {0.5, 0}}
	assert.True(Te, cmp.Equal(want, conv, cmpopts.EquateApprox(0, 1e-12)), cmp.Diff(want, conv))

	//a single trajectory is its own ensemble.
	one, err := S.Subset(0)
	require.NoError(Te, err)
	conv, err = Convergence(one, 4)
	require.NoError(Te, err)
	assert.Equal(Te, [][]float64{{0, 0}}, conv)

	_, err = Convergence(S, 0)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
}
