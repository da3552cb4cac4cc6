/*
 * load.go, part of chemfeat.
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

//Package source reads trajectories and featurizes their frames, either all at once (Load)
//or as a stream of chunks of bounded size (Stream).
package source

import (
	"context"
	"fmt"
	"runtime"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/feat"
	"github.com/rmera/chemfeat/store"
	"github.com/rmera/chemfeat/traj"
	v3 "github.com/rmera/chemfeat/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

//Load featurizes every frame of every file, and returns a store with one feature matrix per
//file, in the order of files. Files are processed concurrently. Load freezes F.
//If anything fails, no store is returned.
func Load(F *feat.Featurizer, files []string, opts ...Option) (*store.Store, error) {
	return LoadContext(context.Background(), F, files, opts...)
}

//LoadContext is like Load, but stops early if ctx is cancelled.
func LoadContext(ctx context.Context, F *feat.Featurizer, files []string, opts ...Option) (*store.Store, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "source.Load", "no trajectories given")
	}
	F.Freeze()
	if o.workers == 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	mats := make([]*mat.Dense, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, name := range files {
		g.Go(func() error {
			m, err := loadFile(ctx, F, name, o)
			if err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			mats[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	S, err := store.New(F.Describe(), mats...)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("Trajectories featurized", zap.Int("trajectories", S.Len()), zap.Int("frames", S.TotalFrames()), zap.Int("features", S.Dim()))
	return S, nil
}

//openChecked opens a trajectory and checks that its frames can be transformed by F.
func openChecked(F *feat.Featurizer, name string) (traj.Reader, error) {
	r, err := traj.Open(name)
	if err != nil {
		return nil, err
	}
	if r.Len() != F.NAtoms() {
		r.Close()
		return nil, chem.NewError(chem.ErrDataMismatch, "source", "%s has %d atoms per frame, the topology has %d", name, r.Len(), F.NAtoms())
	}
	return r, nil
}

//ctxCheckEvery is how many frames are read between checks of the context.
const ctxCheckEvery = 256

func loadFile(ctx context.Context, F *feat.Featurizer, name string, o options) (*mat.Dense, error) {
	r, err := openChecked(F, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	dim := F.Dimension()
	coords := v3.Zeros(r.Len())
	data := make([]float64, 0, 1024*dim)
	for frame := 0; ; frame++ {
		if frame%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		keep := o.keep(frame)
		var dst *v3.Matrix
		if keep {
			dst = coords
		}
		if err := r.Next(dst); err != nil {
			if chem.IsLastFrame(err) {
				break
			}
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
		if !keep {
			continue
		}
		data = append(data, make([]float64, dim)...)
		if _, err := F.Transform(coords, data[len(data)-dim:]); err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "source", "no frames left in %s after skipping %d", name, o.skip)
	}
	return mat.NewDense(len(data)/dim, dim, data), nil
}
