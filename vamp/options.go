/*
 * options.go, part of chemfeat.
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

package vamp

import (
	chem "github.com/rmera/chemfeat"
)

//Default values for the options.
const (
	DefaultEpsilon      = 1e-10
	DefaultSplits       = 10
	DefaultTestFraction = 0.5
	DefaultSeed         = 42
)

type options struct {
	eps      float64
	splits   int
	testfrac float64
	seed     int64
	r        int
}

//Option sets a parameter of the fit or of the cross validation.
type Option func(*options)

//Epsilon sets the threshold below which eigenvalues of the covariance
//matrices are discarded when whitening.
func Epsilon(e float64) Option { return func(o *options) { o.eps = e } }

//Splits sets the number of random train/test splits in CrossValidate.
func Splits(n int) Option { return func(o *options) { o.splits = n } }

//TestFraction sets the fraction of the trajectories used as test set in CrossValidate.
//At least one trajectory always goes to each side.
func TestFraction(f float64) Option { return func(o *options) { o.testfrac = f } }

//Seed sets the seed for the random splits in CrossValidate.
func Seed(s int64) Option { return func(o *options) { o.seed = s } }

//Order sets the r of the VAMP-r score computed by CrossValidate, 1 or 2 (the default).
func Order(r int) Option { return func(o *options) { o.r = r } }

func newOptions(opts []Option) (options, error) {
	o := options{eps: DefaultEpsilon, splits: DefaultSplits, testfrac: DefaultTestFraction, seed: DefaultSeed, r: 2}
	for _, f := range opts {
		f(&o)
	}
	switch {
	case o.eps < 0:
		return o, chem.NewError(chem.ErrConfiguration, "vamp", "negative epsilon %g", o.eps)
	case o.splits < 1:
		return o, chem.NewError(chem.ErrConfiguration, "vamp", "%d splits requested", o.splits)
	case o.testfrac <= 0 || o.testfrac >= 1:
		return o, chem.NewError(chem.ErrConfiguration, "vamp", "test fraction must be in (0,1), got %g", o.testfrac)
	case o.r != 1 && o.r != 2:
		return o, chem.NewError(chem.ErrConfiguration, "vamp", "only VAMP-1 and VAMP-2 scores are supported, got r=%d", o.r)
	}
	return o, nil
}
