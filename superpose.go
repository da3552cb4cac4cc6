/*
 * superpose.go, part of chemfeat.
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

/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"math"

	v3 "github.com/rmera/chemfeat/v3"
	"gonum.org/v1/gonum/mat"
)

//points returns the coordinates of the atoms listed in idx, or all of them if idx is empty.
func points(coords *v3.Matrix, idx []int) [][3]float64 {
	if len(idx) == 0 {
		ret := make([][3]float64, coords.NVecs())
		for i := range ret {
			ret[i] = coords.Vec3(i)
		}
		return ret
	}
	ret := make([][3]float64, len(idx))
	for i, v := range idx {
		ret[i] = coords.Vec3(v)
	}
	return ret
}

func centroid(p [][3]float64) [3]float64 {
	var c [3]float64
	for _, v := range p {
		c[0] += v[0]
		c[1] += v[1]
		c[2] += v[2]
	}
	n := float64(len(p))
	return [3]float64{c[0] / n, c[1] / n, c[2] / n}
}

//Superimposer holds the rotation and translations that superimpose
//one set of points on another. A point x is moved to (x-From)*R+To, where
//x is a row vector.
type Superimposer struct {
	R    [3][3]float64
	From [3]float64
	To   [3]float64
}

//Apply returns the superimposed version of the point x.
func (S *Superimposer) Apply(x [3]float64) [3]float64 {
	d := sub3(x, S.From)
	var ret [3]float64
	for j := 0; j < 3; j++ {
		ret[j] = d[0]*S.R[0][j] + d[1]*S.R[1][j] + d[2]*S.R[2][j] + S.To[j]
	}
	return ret
}

//kabsch obtains the proper rotation (no reflections) that minimizes the RMSD between the
//points in test and those in templa, by the Kabsch algorithm.
func kabsch(test, templa [][3]float64) *Superimposer {
	S := &Superimposer{From: centroid(test), To: centroid(templa)}
	H := mat.NewDense(3, 3, nil)
	for k := range test {
		p := sub3(test[k], S.From)
		q := sub3(templa[k], S.To)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				H.Set(i, j, H.At(i, j)+p[i]*q[j])
			}
		}
	}
	var svd mat.SVD
	if !svd.Factorize(H, mat.SVDFull) {
		//Degenerate sets (ex. a single point) only need the translation.
		S.R = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		return S
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	//the row-vector rotation is U*D*V', D corrects reflections.
	d := 1.0
	if mat.Det(&U)*mat.Det(&V) < 0 {
		d = -1
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			S.R[i][j] = U.At(i, 0)*V.At(j, 0) + U.At(i, 1)*V.At(j, 1) + d*U.At(i, 2)*V.At(j, 2)
		}
	}
	return S
}

func checkSuper(caller string, test, templa *v3.Matrix, testlst, templalst []int) error {
	if test == nil || templa == nil {
		return NewError(ErrConfiguration, caller, ErrNilData)
	}
	n1, n2 := len(testlst), len(templalst)
	if n1 == 0 {
		n1 = test.NVecs()
	}
	if n2 == 0 {
		n2 = templa.NVecs()
	}
	if n1 != n2 {
		return NewError(ErrDataMismatch, caller, "Mismatched template and test atom numbers: %d, %d", n2, n1)
	}
	if n1 == 0 {
		return NewError(ErrConfiguration, caller, "no atoms to superimpose")
	}
	for _, l := range []struct {
		m   *v3.Matrix
		idx []int
	}{{test, testlst}, {templa, templalst}} {
		for _, v := range l.idx {
			if v < 0 || v >= l.m.NVecs() {
				return NewError(ErrOutOfRange, caller, "atom index %d out of range, %d atoms", v, l.m.NVecs())
			}
		}
	}
	return nil
}

//GetSuper returns the Superimposer that puts the atoms of test listed in testlst on the
//atoms of templa listed in templalst. Empty lists mean all the atoms. Both lists must have
//the same number of elements.
func GetSuper(test, templa *v3.Matrix, testlst, templalst []int) (*Superimposer, error) {
	if err := checkSuper("GetSuper", test, templa, testlst, templalst); err != nil {
		return nil, err
	}
	return kabsch(points(test, testlst), points(templa, templalst)), nil
}

//Super determines the best rotation and translations to superimpose the atoms of test
//listed in testlst on the atoms of templa listed in templalst. It returns a copy of the
//whole test with the superposition applied. test is not modified.
func Super(test, templa *v3.Matrix, testlst, templalst []int) (*v3.Matrix, error) {
	S, err := GetSuper(test, templa, testlst, templalst)
	if err != nil {
		return nil, ErrDecorate(err, "Super")
	}
	ret := v3.Zeros(test.NVecs())
	for i := 0; i < test.NVecs(); i++ {
		p := S.Apply(test.Vec3(i))
		ret.Set(i, 0, p[0])
		ret.Set(i, 1, p[1])
		ret.Set(i, 2, p[2])
	}
	return ret, nil
}

func rmsd(a, b [][3]float64) float64 {
	var sum float64
	for i := range a {
		d := sub3(a[i], b[i])
		sum += dot3(d, d)
	}
	return math.Sqrt(sum / float64(len(a)))
}

//RMSD returns the RSMD (root of the mean square deviation) between the coordinates in test
//and template, without superimposing them. If indexes are given, the first slice lists the
//atoms of test and the second (or the first, if only one is given) those of template.
func RMSD(test, template *v3.Matrix, indexes ...[]int) (float64, error) {
	var tl, pl []int
	if len(indexes) > 0 {
		tl, pl = indexes[0], indexes[0]
	}
	if len(indexes) > 1 {
		pl = indexes[1]
	}
	if err := checkSuper("RMSD", test, template, tl, pl); err != nil {
		return 0, err
	}
	return rmsd(points(test, tl), points(template, pl)), nil
}

//MinRMSD returns the RMSD between the atoms of test and template listed in idx (all if
//idx is empty) after the optimal superposition of those atoms.
func MinRMSD(test, template *v3.Matrix, idx []int) (float64, error) {
	if err := checkSuper("MinRMSD", test, template, idx, idx); err != nil {
		return 0, err
	}
	p, q := points(test, idx), points(template, idx)
	S := kabsch(p, q)
	for i := range p {
		p[i] = S.Apply(p[i])
	}
	return rmsd(p, q), nil
}
