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

package source

import (
	chem "github.com/rmera/chemfeat"
)

//DefaultChunk is the default number of frames per chunk in a Stream.
const DefaultChunk = 1000

type options struct {
	chunk   int
	stride  int
	skip    int
	workers int
}

//Option modifies how the frames are read.
type Option func(*options)

//Chunk sets the maximum number of frames in each chunk of a Stream.
func Chunk(n int) Option { return func(o *options) { o.chunk = n } }

//Stride keeps only every s-th frame (after the skipped ones).
func Stride(s int) Option { return func(o *options) { o.stride = s } }

//Skip discards the first n frames of each trajectory.
func Skip(n int) Option { return func(o *options) { o.skip = n } }

//Workers sets the maximum number of trajectories featurized at the same time by Load.
//The default is GOMAXPROCS.
func Workers(n int) Option { return func(o *options) { o.workers = n } }

func newOptions(opts []Option) (options, error) {
	o := options{chunk: DefaultChunk, stride: 1}
	for _, f := range opts {
		f(&o)
	}
	switch {
	case o.chunk < 1:
		return o, chem.NewError(chem.ErrConfiguration, "source", "chunk size must be positive, got %d", o.chunk)
	case o.stride < 1:
		return o, chem.NewError(chem.ErrConfiguration, "source", "stride must be positive, got %d", o.stride)
	case o.skip < 0:
		return o, chem.NewError(chem.ErrConfiguration, "source", "can't skip %d frames", o.skip)
	case o.workers < 0:
		return o, chem.NewError(chem.ErrConfiguration, "source", "invalid number of workers %d", o.workers)
	}
	return o, nil
}

//keep returns true if the frame-th frame (0-based) of a trajectory is to be featurized.
func (o options) keep(frame int) bool {
	return frame >= o.skip && (frame-o.skip)%o.stride == 0
}

//kept returns how many frames of a trajectory with n frames are featurized.
func (o options) kept(n int) int {
	if n <= o.skip {
		return 0
	}
	return (n - o.skip + o.stride - 1) / o.stride
}
