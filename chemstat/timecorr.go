/*
 * timecorr.go, part of chemfeat.
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

//Package chemstat contains statistical tools for trajectories and feature time series,
//mainly time correlation functions.
package chemstat

import (
	"fmt"
	"math/cmplx"

	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func cmplxMulConj(dst, b []complex128) {
	if len(dst) != len(b) {
		panic(fmt.Sprintf("complex conjugate multiplication of slices: Both slices should have the same len %d, %d", len(dst), len(b)))
	}
	for i, v := range b {
		dst[i] *= cmplx.Conj(v)
	}
}

func cmplxRealScale(dst []complex128, sc float64) []complex128 {
	for i, v := range dst {
		dst[i] = v * complex(sc, 0)
	}
	return dst
}

//mapfunc applies f to every remaining frame of t, appending the results to c.
func mapfunc(t chem.Traj, coord *v3.Matrix, c []float64, f func(c *v3.Matrix) float64) ([]float64, error) {
	for err := t.Next(coord); ; err = t.Next(coord) {
		if err != nil {
			if chem.IsLastFrame(err) {
				break
			}
			return nil, chem.ErrDecorate(err, "chemstat.mapfunc")
		}
		c = append(c, f(coord))
	}
	return c, nil
}

//TrajCorrelation finds the cross-correlation function for the functions produced by f1 and f2 on trajectories t1 and t2.
//If t2 is nil, t1 and f1 are used for both, and you obtain the autocorrelation function,
//which is cheaper than passing the same function and a second copy of the trajectory.
//The trajectories are read until their last frame, and must have the same number of frames.
func TrajCorrelation(t1, t2 chem.Traj, f1, f2 func(c *v3.Matrix) float64) ([]float64, error) {
	c1, err := mapfunc(t1, v3.Zeros(t1.Len()), make([]float64, 0, 1024), f1)
	if err != nil {
		return nil, err
	}
	c2 := c1
	if t2 != nil {
		c2, err = mapfunc(t2, v3.Zeros(t2.Len()), make([]float64, 0, len(c1)), f2)
		if err != nil {
			return nil, err
		}
	}
	if len(c1) != len(c2) || len(c1) < 2 {
		return nil, chem.NewError(chem.ErrDataMismatch, "chemstat.TrajCorrelation", "trajectories with %d and %d frames", len(c1), len(c2))
	}
	return CrossCorrMem(c1, c2, nil, nil), nil
}

//RMSDCorrFunc returns a function that gives the RMSD of a frame to refcoord, after superimposing
//the atoms in indexes (all atoms if not given), for use with TrajCorrelation.
func RMSDCorrFunc(refcoord *v3.Matrix, indexes ...int) func(c *v3.Matrix) float64 {
	return func(c *v3.Matrix) float64 {
		f, err := chem.MinRMSD(c, refcoord, indexes)
		if err != nil {
			panic(err.Error())
		}
		return f
	}
}

//CrossCorrMem returns the cross-correlation of the series c1 and c2, which must have the same length n,
//computed with FFTs. The elements 0 to n-1 of the result are the correlations at lags 0 to n-1.
//The remaining elements are the correlations at negative lags, in wrapped order. c1pad and c2pad
//are workspace, and are allocated if they don't have a length of 2n. The correlation
//is normalized by the standard deviations of c1 and c2, and by n.
func CrossCorrMem(c1, c2 []float64, c1pad, c2pad []complex128, dst ...[]float64) []float64 {
	var ret []float64
	if len(dst) == 0 || len(dst[0]) > 0 { //if you give a slice, you can the cap, but len must be 0
		ret = make([]float64, 0, 2*len(c1))
	} else {
		ret = dst[0]
	}
	//we start preparing the data
	c1mean, c1std := stat.MeanStdDev(c1, nil)
	c2mean, c2std := stat.MeanStdDev(c2, nil)
	if len(c1pad) != 2*len(c1) {
		c1pad = make([]complex128, 2*len(c1))
	}
	if len(c2pad) != 2*len(c2) {
		c2pad = make([]complex128, 2*len(c2))
	}
	for i, v := range c1 {
		c1pad[i] = complex(v-c1mean, 0)
		c2pad[i] = complex(c2[i]-c2mean, 0)
	}
	for i := len(c1); i < len(c1pad); i++ {
		c1pad[i] = 0
		c2pad[i] = 0
	}
	f := fourier.NewCmplxFFT(len(c1pad))
	f.Coefficients(c1pad, c1pad)
	f.Coefficients(c2pad, c2pad)
	cmplxMulConj(c1pad, c2pad)
	f.Sequence(c1pad, c1pad)
	cmplxRealScale(c1pad, 1.0/float64(len(c1pad))) //normalization of the FFT
	for _, v := range c1pad {
		ret = append(ret, real(v)/(c1std*c2std)/float64(len(c1)))
	}
	return ret
}
