/*
 * stream.go, part of chemfeat.
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
	"fmt"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/feat"
	"github.com/rmera/chemfeat/store"
	"github.com/rmera/chemfeat/traj"
	v3 "github.com/rmera/chemfeat/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

//Stream featurizes a list of trajectories chunk by chunk, in file order and frame order.
//Only one chunk is held in memory at a time. A Stream is not safe for concurrent use.
type Stream struct {
	F      *feat.Featurizer
	files  []string
	o      options
	cur    int //index of the file being read
	r      traj.Reader
	frame  int //frames read from the current file
	row    int //rows produced from the current file
	coords *v3.Matrix
	closed bool
}

//NewStream returns a Stream over files. Every file is opened, and its header read, here,
//so missing or corrupted files (chem.ErrIO) and atom number mismatches (chem.ErrDataMismatch)
//are reported before any frame is featurized. NewStream freezes F.
func NewStream(F *feat.Featurizer, files []string, opts ...Option) (*Stream, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "source.NewStream", "no trajectories given")
	}
	for _, name := range files {
		r, err := openChecked(F, name)
		if err != nil {
			return nil, err
		}
		r.Close()
	}
	F.Freeze()
	return &Stream{F: F, files: append([]string(nil), files...), o: o, coords: v3.Zeros(F.NAtoms())}, nil
}

//Labels returns the labels of the feature columns.
func (S *Stream) Labels() []string {
	return S.F.Describe()
}

//Files returns the number of trajectories in the stream.
func (S *Stream) Files() int {
	return len(S.files)
}

//NFrames returns, for each trajectory, the number of frames the stream produces (i.e. after
//skipping and striding), counted without featurizing or, when the format allows it, reading the frames.
func (S *Stream) NFrames() ([]int, error) {
	ret := make([]int, len(S.files))
	for i, name := range S.files {
		n, err := traj.Count(name)
		if err != nil {
			return nil, fmt.Errorf("counting frames in %s: %w", name, err)
		}
		ret[i] = S.o.kept(n)
	}
	return ret, nil
}

//Next returns the next chunk, with at most the chunk size rows. When all the trajectories
//have been read, it returns a chem.LastFrameError. The Data of the returned chunk is not
//reused by the Stream.
func (S *Stream) Next() (*store.Chunk, error) {
	if S.closed {
		return nil, newEndOfStream()
	}
	dim := S.F.Dimension()
	for S.cur < len(S.files) {
		if S.r == nil {
			r, err := openChecked(S.F, S.files[S.cur])
			if err != nil {
				return nil, err
			}
			zap.L().Debug("Streaming trajectory", zap.String("file", S.files[S.cur]), zap.Int("index", S.cur))
			S.r, S.frame, S.row = r, 0, 0
		}
		t, start := S.cur, S.row
		data := make([]float64, 0, S.o.chunk*dim)
		for len(data) < S.o.chunk*dim {
			keep := S.o.keep(S.frame)
			var dst *v3.Matrix
			if keep {
				dst = S.coords
			}
			err := S.r.Next(dst)
			if err != nil {
				if !chem.IsLastFrame(err) {
					return nil, fmt.Errorf("%s, frame %d: %w", S.files[S.cur], S.frame, err)
				}
				S.r.Close()
				S.r = nil
				if S.row == 0 {
					return nil, chem.NewError(chem.ErrConfiguration, "Stream.Next", "no frames left in %s after skipping %d", S.files[S.cur], S.o.skip)
				}
				S.cur++
				break
			}
			S.frame++
			if !keep {
				continue
			}
			data = append(data, make([]float64, dim)...)
			if _, err := S.F.Transform(S.coords, data[len(data)-dim:]); err != nil {
				return nil, err
			}
			S.row++
		}
		if len(data) > 0 {
			return &store.Chunk{Traj: t, Start: start, Data: mat.NewDense(len(data)/dim, dim, data)}, nil
		}
	}
	return nil, newEndOfStream()
}

//Close releases the open trajectory, if any. The Stream can't be used afterwards.
//It is safe to call Close at any point, and more than once.
func (S *Stream) Close() {
	if S.r != nil {
		S.r.Close()
		S.r = nil
	}
	S.closed = true
}

//Collect reads all the remaining chunks and assembles them into a store.
//It closes the stream.
func (S *Stream) Collect() (*store.Store, error) {
	defer S.Close()
	var chunks []*store.Chunk
	for {
		c, err := S.Next()
		if err != nil {
			if chem.IsLastFrame(err) {
				break
			}
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return store.FromChunks(S.Labels(), len(S.files), chunks)
}

//endOfStream implements chem.LastFrameError
type endOfStream struct {
	deco []string
}

func newEndOfStream() *endOfStream { return &endOfStream{deco: []string{"Stream.Next"}} }

func (E *endOfStream) NormalLastFrameTermination() {}

func (E *endOfStream) FileName() string { return "" }

func (E *endOfStream) Error() string { return "EOF" }

func (E *endOfStream) Critical() bool { return false }

func (E *endOfStream) Format() string { return "stream" }

func (E *endOfStream) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}
