/*
 * cv.go, part of chemfeat.
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
	"math"
	"math/rand"

	chem "github.com/rmera/chemfeat"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//split returns the indexes of the train and test trajectories for each of the
//random splits requested in o. The splits depend only on the seed.
func split(ntraj int, o options) [][2][]int {
	ntest := int(math.Round(o.testfrac * float64(ntraj)))
	ntest = max(1, min(ntraj-1, ntest))
	rng := rand.New(rand.NewSource(o.seed))
	ret := make([][2][]int, o.splits)
	for i := range ret {
		perm := rng.Perm(ntraj)
		ret[i] = [2][]int{perm[ntest:], perm[:ntest]}
	}
	return ret
}

func pick(data []*mat.Dense, idx []int) []*mat.Dense {
	ret := make([]*mat.Dense, len(idx))
	for i, v := range idx {
		ret[i] = data[v]
	}
	return ret
}

//CrossValidate fits a model on a random subset of the trajectories in data and scores it
//on the rest, as many times as the Splits option says. Trajectories are never split,
//so data needs at least 2 of them. The splits are evaluated concurrently, but the
//returned scores are in the order of the splits, and depend only on the Seed option.
func CrossValidate(data []*mat.Dense, lag, dim int, opts ...Option) ([]float64, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, chem.NewError(chem.ErrConfiguration, "vamp.CrossValidate", "cross validation needs at least 2 trajectories, got %d", len(data))
	}
	if _, err := width("vamp.CrossValidate", data); err != nil {
		return nil, err
	}
	splits := split(len(data), o)
	scores := make([]float64, len(splits))
	var g errgroup.Group
	for i, s := range splits {
		g.Go(func() error {
			M, err := Fit(pick(data, s[0]), lag, dim, Epsilon(o.eps))
			if err != nil {
				return err
			}
			scores[i], err = M.Score(pick(data, s[1]), o.r)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

//LagScore summarizes the cross validated scores at one lag time.
type LagScore struct {
	Lag    int
	Mean   float64
	Std    float64
	Scores []float64
}

//ScanLags runs CrossValidate for each of the given lags, with the same splits for all of them.
func ScanLags(data []*mat.Dense, lags []int, dim int, opts ...Option) ([]LagScore, error) {
	if len(lags) == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "vamp.ScanLags", "no lag times given")
	}
	ret := make([]LagScore, 0, len(lags))
	for _, lag := range lags {
		scores, err := CrossValidate(data, lag, dim, opts...)
		if err != nil {
			return nil, err
		}
		ls := LagScore{Lag: lag, Scores: scores}
		if len(scores) > 1 {
			ls.Mean, ls.Std = stat.MeanStdDev(scores, nil)
		} else {
			ls.Mean = scores[0]
		}
		ret = append(ret, ls)
	}
	return ret, nil
}
