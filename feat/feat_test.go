/*
 * feat_test.go, part of chemfeat.
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

package feat

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/internal/toy"
	v3 "github.com/rmera/chemfeat/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsCartesian(Te *testing.T) {
	top, ref := toy.Peptide(2)
	F, err := New(top)
	require.NoError(Te, err)
	assert.Equal(Te, 3*top.Len(), F.Dimension())
	v, err := F.Transform(ref, nil)
	require.NoError(Te, err)
	if diff := cmp.Diff(ref.Flatten(nil), v); diff != "" {
		Te.Errorf("default features differ from the coordinates (-want +got):\n%s", diff)
	}
	labels := F.Describe()
	require.Len(Te, labels, 3*top.Len())
	assert.Equal(Te, "A/ALA1:N x", labels[0])
	assert.True(Te, F.Frozen())
	assert.True(Te, errors.Is(F.AddSelection([]int{0}), chem.ErrConfiguration))
}

func TestWidths(Te *testing.T) {
	top, ref := toy.Peptide(4)
	F, err := New(top)
	require.NoError(Te, err)
	ca := chem.SelectNames(top, "CA")
	require.Len(Te, ca, 4)
	require.NoError(Te, F.AddSelection(ca))                                                      //12
	require.NoError(Te, F.AddDistances(ca))                                                      //6
	require.NoError(Te, F.AddInverseDistances(ca[:3]))                                           //3
	require.NoError(Te, F.AddDistancePairs([][2]int{{0, 19}}))                                   //1
	require.NoError(Te, F.AddContacts(ca, 4.5))                                                  //6
	require.NoError(Te, F.AddAngles([][3]int{{0, 1, 3}}, true, false))                           //1
	require.NoError(Te, F.AddDihedrals([][4]int{{0, 1, 3, 5}}, false, true))                     //2
	require.NoError(Te, F.AddBackboneTorsions("", true, false))                                  //2 residues, 4
	require.NoError(Te, F.AddCustom("one", 1, func(_ *v3.Matrix, dst []float64) { dst[0] = 1 })) //1
	want := 12 + 6 + 3 + 1 + 6 + 1 + 2 + 4 + 1
	assert.Equal(Te, want, F.Dimension())
	assert.Len(Te, F.Describe(), want)
	v, err := F.Transform(ref, nil)
	require.NoError(Te, err)
	require.Len(Te, v, want)
	assert.Equal(Te, 1.0, v[want-1])
	//the first distance is between the first two CAs.
	assert.InDelta(Te, chem.Distance3(ref.Vec3(ca[0]), ref.Vec3(ca[1])), v[12], 1e-12)
	//cos^2+sin^2 = 1
	c, s := v[12+6+3+1+6+1], v[12+6+3+1+6+2]
	assert.InDelta(Te, 1.0, c*c+s*s, 1e-12)
	//contacts are 0 or 1
	for _, x := range v[22:28] {
		assert.True(Te, x == 0 || x == 1)
	}
	labels := F.Describe()
	assert.Equal(Te, "phi A/ALA2", labels[12+6+3+1+6+1+2])
	assert.Equal(Te, "one", labels[want-1])
}

func TestDeclarationErrors(Te *testing.T) {
	top, _ := toy.Peptide(2)
	F, err := New(top)
	require.NoError(Te, err)
	n := top.Len()
	assert.True(Te, errors.Is(F.AddSelection([]int{0, n}), chem.ErrOutOfRange))
	assert.True(Te, errors.Is(F.AddDistances([]int{-1, 2}), chem.ErrOutOfRange))
	assert.True(Te, errors.Is(F.AddDistances([]int{1}), chem.ErrConfiguration))
	assert.True(Te, errors.Is(F.AddDistancePairs([][2]int{{1, 1}}), chem.ErrConfiguration))
	assert.True(Te, errors.Is(F.AddContacts([]int{1, 2}, 0), chem.ErrConfiguration))
	assert.True(Te, errors.Is(F.AddDihedrals([][4]int{{0, 1, 2, n + 3}}, false, false), chem.ErrOutOfRange))
	assert.True(Te, errors.Is(F.AddBackboneTorsions("Z", false, false), chem.ErrConfiguration))
	assert.True(Te, errors.Is(F.AddCustom("x", 0, nil), chem.ErrConfiguration))
	assert.True(Te, errors.Is(F.AddSelection(nil), chem.ErrConfiguration))
	//none of the failed declarations was added.
	assert.Equal(Te, 3*n, F.Dimension())
	_, err = New(chem.NewTopology(nil))
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
}

func TestFreeze(Te *testing.T) {
	top, ref := toy.Peptide(2)
	F, err := New(top)
	require.NoError(Te, err)
	require.NoError(Te, F.AddDistances([]int{0, 1, 2}))
	F.Freeze()
	F.Freeze()
	assert.True(Te, errors.Is(F.AddSelection([]int{0}), chem.ErrConfiguration))
	assert.Equal(Te, 3, F.Dimension())
	_, err = F.Transform(v3.Zeros(top.Len()+1), nil)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	dst := make([]float64, 3)
	v, err := F.Transform(ref, dst)
	require.NoError(Te, err)
	assert.Same(Te, &dst[0], &v[0])
}

func TestAngles(Te *testing.T) {
	atoms := []*chem.Atom{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	top := chem.NewTopology(atoms)
	coords, err := v3.NewMatrix([]float64{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 1})
	require.NoError(Te, err)
	F, err := New(top)
	require.NoError(Te, err)
	require.NoError(Te, F.AddAngles([][3]int{{0, 1, 2}}, true, false))
	require.NoError(Te, F.AddDihedrals([][4]int{{0, 1, 2, 3}}, false, false))
	require.NoError(Te, F.AddDihedrals([][4]int{{0, 1, 2, 3}}, false, true))
	v, err := F.Transform(coords, nil)
	require.NoError(Te, err)
	want := []float64{90, math.Pi / 2, 0, 1}
	if diff := cmp.Diff(want, v, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		Te.Errorf("angles (-want +got):\n%s", diff)
	}
}

func TestConcurrentTransform(Te *testing.T) {
	top, ref := toy.Peptide(3)
	frames := toy.Frames(ref, 40, 0.1, 1, 0.1, 9)
	F, err := New(top)
	require.NoError(Te, err)
	require.NoError(Te, F.AddDistances(chem.SelectNames(top, "CA", "O")))
	serial, err := F.TransformMatrix(frames)
	require.NoError(Te, err)
	results := make([][]float64, len(frames))
	var wg sync.WaitGroup
	for i := range frames {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = F.Transform(frames[i], nil)
		}(i)
	}
	wg.Wait()
	for i := range frames {
		assert.Equal(Te, serial.RawRowView(i), results[i])
	}
}

func TestSuperposition(Te *testing.T) {
	top, ref := toy.Peptide(3)
	//the reference turned 90 degrees around z and moved.
	frame := v3.Zeros(ref.NVecs())
	for i := 0; i < ref.NVecs(); i++ {
		c := ref.Vec3(i)
		frame.Set(i, 0, -c[1]+5)
		frame.Set(i, 1, c[0]-1)
		frame.Set(i, 2, c[2]+2)
	}
	ca := chem.SelectNames(top, "CA")
	ob := chem.SelectNames(top, "O", "CB")
	F, err := New(top)
	require.NoError(Te, err)
	require.NoError(Te, F.AddMinRMSD(ref, ca))
	//the CA atoms are collinear, so they can't define the orientation.
	require.NoError(Te, F.AddAlignedSelection(ref, chem.SelectNames(top, "N", "CA", "C"), ob))
	assert.Equal(Te, 1+3*len(ob), F.Dimension())
	assert.Equal(Te, "minrmsd(3 atoms)", F.Describe()[0])
	v, err := F.Transform(frame, nil)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.0, v[0], 1e-8)
	want := make([]float64, 0, 3*len(ob))
	for _, i := range ob {
		c := ref.Vec3(i)
		want = append(want, c[:]...)
	}
	if diff := cmp.Diff(want, v[1:], cmpopts.EquateApprox(0, 1e-8)); diff != "" {
		Te.Errorf("aligned coordinates (-want +got):\n%s", diff)
	}

	G, err := New(top)
	require.NoError(Te, err)
	assert.True(Te, errors.Is(G.AddMinRMSD(nil, ca), chem.ErrConfiguration))
	assert.True(Te, errors.Is(G.AddMinRMSD(v3.Zeros(3), ca), chem.ErrDataMismatch))
	assert.True(Te, errors.Is(G.AddAlignedSelection(ref, ca, []int{99}), chem.ErrOutOfRange))
}
