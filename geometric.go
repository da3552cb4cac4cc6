/*
 * geometric.go, part of chemfeat.
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
	"fmt"
	"math"

	v3 "github.com/rmera/chemfeat/v3"
)

//The functions taking [3]float64 are the ones used when features are computed
//for every frame of a trajectory, as they don't allocate. The ones taking
//*v3.Matrix are convenience wrappers for one-off calculations.

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func norm3(a [3]float64) float64 {
	return math.Sqrt(dot3(a, a))
}

//Distance3 returns the euclidean distance between the points a and b
func Distance3(a, b [3]float64) float64 {
	return norm3(sub3(a, b))
}

//Angle3 returns the angle, in radians, between the vectors ba and bc, i.e.
//the angle with its vertex in b. It returns NaN if two of the points overlap.
func Angle3(a, b, c [3]float64) float64 {
	ba := sub3(a, b)
	bc := sub3(c, b)
	n := norm3(ba) * norm3(bc)
	if n == 0 {
		return math.NaN()
	}
	cos := dot3(ba, bc) / n
	//floating point errors can take this slightly outside the domain of Acos.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

//Dihedral3 calculate the dihedral, in radians, between the points a, b, c, d, where the first plane
//is defined by abc and the second by bcd. The result is in the (-pi, pi] range.
func Dihedral3(a, b, c, d [3]float64) float64 {
	//bma=b minus a
	bma := sub3(b, a)
	cmb := sub3(c, b)
	dmc := sub3(d, c)
	n := norm3(cmb)
	bmascaled := [3]float64{bma[0] * n, bma[1] * n, bma[2] * n}
	first := dot3(bmascaled, cross3(cmb, dmc))
	v1 := cross3(bma, cmb)
	v2 := cross3(cmb, dmc)
	second := dot3(v1, v2)
	return math.Atan2(first, second)
}

func checkVec(number int, point *v3.Matrix) {
	if point == nil {
		panic(fmt.Sprintf("Vector %d is nil", number))
	}
	pr, pc := point.Dims()
	if pr != 1 || pc != 3 {
		panic(fmt.Sprintf("Vector %d has invalid shape", number))
	}
}

//Distance returns the distance between the points a and b, given as 1x3 matrices
func Distance(a, b *v3.Matrix) float64 {
	checkVec(0, a)
	checkVec(1, b)
	return Distance3(a.Vec3(0), b.Vec3(0))
}

//Angle returns the angle, in radians, with vertex in b, between the points a, b and c.
func Angle(a, b, c *v3.Matrix) float64 {
	for number, point := range []*v3.Matrix{a, b, c} {
		checkVec(number, point)
	}
	return Angle3(a.Vec3(0), b.Vec3(0), c.Vec3(0))
}

//Dihedral calculate the dihedral between the points a, b, c, d, where the first plane
//is defined by abc and the second by bcd.
func Dihedral(a, b, c, d *v3.Matrix) float64 {
	for number, point := range []*v3.Matrix{a, b, c, d} {
		checkVec(number, point)
	}
	return Dihedral3(a.Vec3(0), b.Vec3(0), c.Vec3(0), d.Vec3(0))
}
