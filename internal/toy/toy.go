/*
 * toy.go, part of chemfeat.
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

//Package toy builds small synthetic systems and trajectories, so the
//rest of the library can be tested without shipping MD data.
package toy

import (
	"math"
	"math/rand"

	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
	"gonum.org/v1/gonum/mat"
)

//offsets of the N, CA, CB, C, O atoms from the start of each residue.
var backbone = []struct {
	name, symbol string
	pos          [3]float64
}{
	{"N", "N", [3]float64{0.0, 0.0, 0.0}},
	{"CA", "C", [3]float64{1.2, 1.0, 0.2}},
	{"CB", "C", [3]float64{1.5, 1.8, 1.3}},
	{"C", "C", [3]float64{2.5, 0.3, -0.3}},
	{"O", "O", [3]float64{2.7, -0.9, -0.5}},
}

//AtomsPerResidue is the number of atoms in each residue of a Peptide.
const AtomsPerResidue = 5

//Peptide returns the topology and a reference structure for a poly-alanine
//chain of nres residues (N, CA, CB, C, O each), chain A, residues numbered from 1.
func Peptide(nres int) (*chem.Topology, *v3.Matrix) {
	atoms := make([]*chem.Atom, 0, nres*len(backbone))
	coords := v3.Zeros(nres * len(backbone))
	masses := map[string]float64{"N": 14.01, "C": 12.01, "O": 16.00}
	for r := 0; r < nres; r++ {
		for j, b := range backbone {
			at := &chem.Atom{Name: b.name, ID: len(atoms) + 1, Molname: "ALA", MolID: r + 1, Chain: "A", Symbol: b.symbol, Mass: masses[b.symbol]}
			atoms = append(atoms, at)
			i := r*len(backbone) + j
			coords.Set(i, 0, 3.8*float64(r)+b.pos[0])
			coords.Set(i, 1, b.pos[1])
			coords.Set(i, 2, b.pos[2])
		}
	}
	return chem.NewTopology(atoms), coords
}

//Frames returns n frames built from ref. Each atom gets gaussian noise of
//standard deviation sigma, and the atoms of the last residue are displaced by
//+-shift Angstrom along z, depending on a hidden two-state Markov chain that
//switches with probability pswitch at each frame. The result has slow, kinetically
//relevant, features.
func Frames(ref *v3.Matrix, n int, sigma, shift, pswitch float64, seed int64) []*v3.Matrix {
	rng := rand.New(rand.NewSource(seed))
	natoms := ref.NVecs()
	ret := make([]*v3.Matrix, n)
	state := 1.0
	for f := 0; f < n; f++ {
		if rng.Float64() < pswitch {
			state = -state
		}
		c := v3.Zeros(natoms)
		c.Copy(ref)
		for i := 0; i < natoms; i++ {
			for k := 0; k < 3; k++ {
				c.Set(i, k, c.At(i, k)+sigma*rng.NormFloat64())
			}
			if i >= natoms-AtomsPerResidue {
				c.Set(i, 2, c.At(i, 2)+state*shift)
			}
		}
		ret[f] = c
	}
	return ret
}

//DoubleWell returns an n x 2 matrix with an overdamped Langevin trajectory
//in the potential (x^2-1)^2 + y^2/2, integrated with time step dt at temperature kT.
//The x column switches slowly between the two wells, the y column is fast noise.
func DoubleWell(n int, dt, kT float64, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	ret := mat.NewDense(n, 2, nil)
	x, y := -1.0, 0.0
	noise := math.Sqrt(2 * kT * dt)
	for i := 0; i < n; i++ {
		fx := -4 * x * (x*x - 1)
		fy := -y
		x += fx*dt + noise*rng.NormFloat64()
		y += fy*dt + noise*rng.NormFloat64()
		ret.Set(i, 0, x)
		ret.Set(i, 1, y)
	}
	return ret
}
