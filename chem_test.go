/*
 * chem_test.go, part of chemfeat.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/rmera/chemfeat/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//tripeptide builds a 3-residue backbone (N, CA, C, O) with non-planar geometry.
func tripeptide(Te *testing.T) (*Topology, *v3.Matrix) {
	names := []string{"N", "CA", "C", "O"}
	pos := [][3]float64{{0, 0, 0}, {1.2, 1.0, 0.2}, {2.5, 0.3, -0.3}, {2.7, -0.9, -0.5}}
	atoms := make([]*Atom, 0, 12)
	data := make([]float64, 0, 36)
	for r := 0; r < 3; r++ {
		for j, n := range names {
			atoms = append(atoms, &Atom{Name: n, ID: len(atoms) + 1, Molname: "ALA", MolID: r + 1, Chain: "A", Symbol: n[:1], Mass: symbolMass[n[:1]]})
			data = append(data, 3.8*float64(r)+pos[j][0], pos[j][1]+0.3*float64(r), pos[j][2])
		}
	}
	coords, err := v3.NewMatrix(data)
	require.NoError(Te, err)
	return NewTopology(atoms), coords
}

func TestPDBRoundTrip(Te *testing.T) {
	top, coords := tripeptide(Te)
	name := filepath.Join(Te.TempDir(), "tri.pdb")
	require.NoError(Te, PDBFileWrite(name, coords, top, nil))
	mol, err := PDBFileRead(name)
	require.NoError(Te, err)
	require.Equal(Te, top.Len(), mol.Len())
	require.Len(Te, mol.Coords, 1)
	assert.Equal(Te, "C", mol.Atom(1).Symbol)
	masses, err := mol.Masses()
	require.NoError(Te, err)
	assert.InDelta(Te, 14.01, masses[0], 0.01)
	for i := 0; i < top.Len(); i++ {
		assert.Equal(Te, top.Atom(i).Name, mol.Atom(i).Name)
		assert.Equal(Te, top.Atom(i).MolID, mol.Atom(i).MolID)
		a, b := coords.Vec3(i), mol.Coords[0].Vec3(i)
		for k := range a {
			assert.InDelta(Te, a[k], b[k], 1e-3)
		}
	}
}

func TestPDBMultiModel(Te *testing.T) {
	top, coords := tripeptide(Te)
	var sb strings.Builder
	for m := 1; m <= 3; m++ {
		sb.WriteString("MODEL        " + string(rune('0'+m)) + "\n")
		require.NoError(Te, PDBWrite(&sb, coords, top, nil))
		sb.WriteString("ENDMDL\n")
	}
	mol, err := PDBRead(strings.NewReader(sb.String()))
	require.NoError(Te, err)
	require.Len(Te, mol.Coords, 3)
	frame := v3.Zeros(top.Len())
	read := 0
	for {
		err := mol.Next(frame)
		if err != nil {
			require.True(Te, IsLastFrame(err))
			break
		}
		read++
	}
	assert.Equal(Te, 3, read)
	require.NoError(Te, mol.InitRead())
	assert.True(Te, mol.Readable())
}

func TestPDBMissing(Te *testing.T) {
	_, err := PDBFileRead(filepath.Join(Te.TempDir(), "nothere.pdb"))
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, ErrIO))
	_, err = PDBRead(strings.NewReader("REMARK nothing here\n"))
	assert.True(Te, errors.Is(err, ErrIO))
}

func TestErrorTrail(Te *testing.T) {
	err := ErrDecorate(NewError(ErrConfiguration, "inner", "boom"), "outer")
	var cerr *CError
	require.True(Te, errors.As(err, &cerr))
	assert.Equal(Te, []string{"inner", "outer"}, cerr.Decorate(""))
	assert.Equal(Te, "boom (inner <- outer)", err.Error())
	assert.True(Te, errors.Is(err, ErrConfiguration))
	assert.Nil(Te, ErrDecorate(nil, "outer"))

	//errors keep their trail across the PDB readers.
	name := filepath.Join(Te.TempDir(), "short.pdb")
	require.NoError(Te, os.WriteFile(name, []byte("ATOM      1  N   ALA A   1\n"), 0644))
	_, err = PDBFileRead(name)
	require.True(Te, errors.As(err, &cerr))
	assert.Equal(Te, []string{"readFullPDBLine", "PDBRead", "PDBFileRead: " + name}, cerr.Decorate(""))
	assert.True(Te, errors.Is(err, ErrIO))
}

func TestSelections(Te *testing.T) {
	top, _ := tripeptide(Te)
	assert.Equal(Te, []int{1, 5, 9}, SelectNames(top, "CA"))
	assert.Equal(Te, []int{4, 5, 6, 7}, SelectResidues(top, 2))
	assert.Len(Te, SelectBackbone(top), 12)
	assert.Len(Te, SelectHeavy(top), 12)
	assert.Equal(Te, []int{8, 9, 10, 11}, Molecules2Atoms(top, []int{3}, []string{"A"}))
	require.NoError(Te, CheckIndexes(top, 0, 11))
	err := CheckIndexes(top, 0, 12)
	assert.True(Te, errors.Is(err, ErrOutOfRange))
	assert.True(Te, errors.Is(err, ErrConfiguration))
	assert.True(Te, errors.Is(CheckIndexes(top, -1), ErrOutOfRange))
}

func TestGeometry(Te *testing.T) {
	a := [3]float64{1, 0, 0}
	b := [3]float64{0, 0, 0}
	c := [3]float64{0, 0, 1}
	assert.InDelta(Te, 1.0, Distance3(a, b), 1e-12)
	assert.InDelta(Te, math.Pi/2, Angle3(a, b, c), 1e-12)
	assert.True(Te, math.IsNaN(Angle3(a, a, c)))
	assert.InDelta(Te, 0.0, Dihedral3(a, b, c, [3]float64{1, 0, 1}), 1e-12)
	assert.InDelta(Te, math.Pi, math.Abs(Dihedral3(a, b, c, [3]float64{-1, 0, 1})), 1e-12)
	assert.InDelta(Te, math.Pi/2, Dihedral3(a, b, c, [3]float64{0, 1, 1}), 1e-12)
	assert.InDelta(Te, -math.Pi/2, Dihedral3(a, b, c, [3]float64{0, -1, 1}), 1e-12)
	m := func(p [3]float64) *v3.Matrix {
		r, err := v3.NewMatrix(p[:])
		require.NoError(Te, err)
		return r
	}
	assert.InDelta(Te, 90.0, Rad2Deg(Dihedral(m(a), m(b), m(c), m([3]float64{0, 1, 1}))), 1e-9)
	assert.InDelta(Te, math.Pi/2, Angle(m(a), m(b), m(c)), 1e-12)
	assert.InDelta(Te, math.Pi, Deg2Rad(180), 1e-12)
}

func TestRamaList(Te *testing.T) {
	top, coords := tripeptide(Te)
	sets, err := RamaList(top, "A", nil)
	require.NoError(Te, err)
	//only the middle residue has both a previous C and a next N.
	require.Len(Te, sets, 1)
	assert.Equal(Te, RamaSet{Cprev: 2, N: 4, Ca: 5, C: 6, Npost: 8, MolID: 2, Molname: "ALA"}, sets[0])
	assert.Equal(Te, [4]int{2, 4, 5, 6}, sets[0].Phi())
	angles, err := RamaCalc(coords, sets)
	require.NoError(Te, err)
	require.Len(Te, angles, 1)
	phi := Rad2Deg(Dihedral3(coords.Vec3(2), coords.Vec3(4), coords.Vec3(5), coords.Vec3(6)))
	assert.InDelta(Te, phi, angles[0][0], 1e-9)
	none, err := RamaList(top, "B", nil)
	require.NoError(Te, err)
	assert.Empty(Te, none)
	resran := []int{1, -1}
	_, err = RamaList(top, "", resran)
	require.NoError(Te, err)
	assert.Equal(Te, []int{1, -1}, resran)
	_, err = RamaList(nil, "", nil)
	assert.True(Te, errors.Is(err, ErrConfiguration))
}

//moved rotates coords around z by theta, then around x by phi, and translates them.
func moved(coords *v3.Matrix, theta, phi float64, t [3]float64) *v3.Matrix {
	ret := v3.Zeros(coords.NVecs())
	ct, st := math.Cos(theta), math.Sin(theta)
	cp, sp := math.Cos(phi), math.Sin(phi)
	for i := 0; i < coords.NVecs(); i++ {
		c := coords.Vec3(i)
		x, y, z := ct*c[0]-st*c[1], st*c[0]+ct*c[1], c[2]
		y, z = cp*y-sp*z, sp*y+cp*z
		ret.Set(i, 0, x+t[0])
		ret.Set(i, 1, y+t[1])
		ret.Set(i, 2, z+t[2])
	}
	return ret
}

func TestSuper(Te *testing.T) {
	_, coords := tripeptide(Te)
	test := moved(coords, 0.7, -1.9, [3]float64{3, -2, 10})
	r, err := RMSD(test, coords)
	require.NoError(Te, err)
	assert.Greater(Te, r, 1.0)

	sup, err := Super(test, coords, nil, nil)
	require.NoError(Te, err)
	r, err = RMSD(sup, coords)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.0, r, 1e-8)
	//the test matrix is not modified
	r, err = RMSD(test, moved(coords, 0.7, -1.9, [3]float64{3, -2, 10}))
	require.NoError(Te, err)
	assert.Equal(Te, 0.0, r)

	r, err = MinRMSD(test, coords, []int{0, 1, 2, 5, 9})
	require.NoError(Te, err)
	assert.InDelta(Te, 0.0, r, 1e-8)

	//superimposing only some atoms still moves the whole structure.
	sup, err = Super(test, coords, []int{1, 5, 9}, []int{1, 5, 9})
	require.NoError(Te, err)
	for i := 0; i < coords.NVecs(); i++ {
		a, b := sup.Vec3(i), coords.Vec3(i)
		assert.InDelta(Te, 0.0, Distance3(a, b), 1e-8, "atom %d", i)
	}

	//a mirror image can't be superimposed by a proper rotation.
	mirror := v3.Zeros(coords.NVecs())
	mirror.Copy(coords)
	for i := 0; i < mirror.NVecs(); i++ {
		mirror.Set(i, 2, -mirror.At(i, 2))
	}
	r, err = MinRMSD(mirror, coords, nil)
	require.NoError(Te, err)
	assert.Greater(Te, r, 0.01)

	_, err = Super(test, coords, []int{1, 2}, []int{1})
	assert.True(Te, errors.Is(err, ErrDataMismatch))
	_, err = MinRMSD(test, coords, []int{1, 200})
	assert.True(Te, errors.Is(err, ErrOutOfRange))
}
