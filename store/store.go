/*
 * store.go, part of chemfeat.
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

//Package store keeps the feature matrices obtained from a set of trajectories, one
//matrix (frames x features) per trajectory, all with the same columns.
package store

import (
	"fmt"

	chem "github.com/rmera/chemfeat"
	"gonum.org/v1/gonum/mat"
)

//Store is an ordered set of per-trajectory feature matrices sharing the same columns.
//The matrices are not copied, and should not be modified after being added.
type Store struct {
	labels []string
	mats   []*mat.Dense
}

//Chunk is a block of consecutive rows of the feature matrix of one trajectory.
type Chunk struct {
	Traj  int        //index of the trajectory in the input order
	Start int        //row of the trajectory's feature matrix where the chunk starts
	Data  *mat.Dense //the rows
}

//New returns a Store with the given matrices, which must all have the same number of columns,
//and labels for those columns. If labels is nil, the columns are named f0, f1...
func New(labels []string, mats ...*mat.Dense) (*Store, error) {
	if len(mats) == 0 && labels == nil {
		return nil, chem.NewError(chem.ErrDataMismatch, "store.New", "no data given")
	}
	dim := len(labels)
	if labels == nil {
		_, dim = mats[0].Dims()
	}
	for i, m := range mats {
		if m == nil {
			return nil, chem.NewError(chem.ErrDataMismatch, "store.New", "%s: trajectory %d", chem.ErrNilData, i)
		}
		if _, c := m.Dims(); c != dim {
			return nil, chem.NewError(chem.ErrDataMismatch, "store.New", "trajectory %d has %d features, expected %d", i, c, dim)
		}
	}
	if labels == nil {
		labels = make([]string, dim)
		for i := range labels {
			labels[i] = fmt.Sprintf("f%d", i)
		}
	}
	return &Store{labels: append([]string(nil), labels...), mats: append([]*mat.Dense(nil), mats...)}, nil
}

//Len returns the number of trajectories
func (S *Store) Len() int { return len(S.mats) }

//Dim returns the number of features (columns)
func (S *Store) Dim() int { return len(S.labels) }

//Labels returns a copy of the column labels.
func (S *Store) Labels() []string { return append([]string(nil), S.labels...) }

//Traj returns the feature matrix of the i-th trajectory. Panics if i is out of range.
func (S *Store) Traj(i int) *mat.Dense { return S.mats[i] }

//Mats returns the feature matrices, in order.
func (S *Store) Mats() []*mat.Dense { return append([]*mat.Dense(nil), S.mats...) }

//Frames returns the number of frames of each trajectory.
func (S *Store) Frames() []int {
	ret := make([]int, len(S.mats))
	for i, m := range S.mats {
		ret[i], _ = m.Dims()
	}
	return ret
}

//TotalFrames returns the number of frames in all trajectories.
func (S *Store) TotalFrames() int {
	n := 0
	for _, f := range S.Frames() {
		n += f
	}
	return n
}

//Strided returns a new Store with every stride-th frame of each trajectory, starting from the first one.
func (S *Store) Strided(stride int) (*Store, error) {
	if stride < 1 {
		return nil, chem.NewError(chem.ErrConfiguration, "Strided", "stride must be positive, got %d", stride)
	}
	mats := make([]*mat.Dense, len(S.mats))
	for i, m := range S.mats {
		r, c := m.Dims()
		n := (r + stride - 1) / stride
		mats[i] = mat.NewDense(n, c, nil)
		for j := 0; j < n; j++ {
			mats[i].SetRow(j, m.RawRowView(j*stride))
		}
	}
	return &Store{labels: S.Labels(), mats: mats}, nil
}

//Concat returns a matrix with the frames of all the trajectories, one after the other.
func (S *Store) Concat() *mat.Dense {
	total := S.TotalFrames()
	if total == 0 {
		return nil
	}
	ret := mat.NewDense(total, S.Dim(), nil)
	row := 0
	for _, m := range S.mats {
		r, _ := m.Dims()
		ret.Slice(row, row+r, 0, S.Dim()).(*mat.Dense).Copy(m)
		row += r
	}
	return ret
}

//Column returns the values of the j-th feature for all frames of all trajectories.
func (S *Store) Column(j int) ([]float64, error) {
	if j < 0 || j >= S.Dim() {
		return nil, chem.NewError(chem.ErrOutOfRange, "Column", "column %d requested, %d available", j, S.Dim())
	}
	ret := make([]float64, 0, S.TotalFrames())
	for _, m := range S.mats {
		ret = append(ret, mat.Col(nil, j, m)...)
	}
	return ret, nil
}

//Subset returns a Store with only the trajectories with the given indexes, in the given order.
func (S *Store) Subset(idx ...int) (*Store, error) {
	mats := make([]*mat.Dense, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= S.Len() {
			return nil, chem.NewError(chem.ErrOutOfRange, "Subset", "trajectory %d requested, %d available", i, S.Len())
		}
		mats = append(mats, S.mats[i])
	}
	return &Store{labels: S.Labels(), mats: mats}, nil
}

//Columns returns a Store with only the given features, in the given order.
func (S *Store) Columns(cols ...int) (*Store, error) {
	if len(cols) == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "Columns", "no columns requested")
	}
	labels := make([]string, len(cols))
	for k, j := range cols {
		if j < 0 || j >= S.Dim() {
			return nil, chem.NewError(chem.ErrOutOfRange, "Columns", "column %d requested, %d available", j, S.Dim())
		}
		labels[k] = S.labels[j]
	}
	mats := make([]*mat.Dense, len(S.mats))
	for i, m := range S.mats {
		r, _ := m.Dims()
		mats[i] = mat.NewDense(r, len(cols), nil)
		for k, j := range cols {
			mats[i].SetCol(k, mat.Col(nil, j, m))
		}
	}
	return &Store{labels: labels, mats: mats}, nil
}

//FromChunks assembles a Store from chunks given in trajectory order and, for each trajectory,
//in row order, as produced by a stream. ntraj is the number of trajectories; all of them must
//have at least one chunk.
func FromChunks(labels []string, ntraj int, chunks []*Chunk) (*Store, error) {
	parts := make([][]*Chunk, ntraj)
	rows := make([]int, ntraj)
	for _, c := range chunks {
		if c.Traj < 0 || c.Traj >= ntraj {
			return nil, chem.NewError(chem.ErrDataMismatch, "FromChunks", "chunk for trajectory %d, only %d trajectories", c.Traj, ntraj)
		}
		if c.Start != rows[c.Traj] {
			return nil, chem.NewError(chem.ErrDataMismatch, "FromChunks", "chunk of trajectory %d starts at row %d, expected %d", c.Traj, c.Start, rows[c.Traj])
		}
		r, _ := c.Data.Dims()
		rows[c.Traj] += r
		parts[c.Traj] = append(parts[c.Traj], c)
	}
	mats := make([]*mat.Dense, ntraj)
	for i, p := range parts {
		if len(p) == 0 {
			return nil, chem.NewError(chem.ErrDataMismatch, "FromChunks", "no frames for trajectory %d", i)
		}
		_, c := p[0].Data.Dims()
		mats[i] = mat.NewDense(rows[i], c, nil)
		for _, ch := range p {
			r, cc := ch.Data.Dims()
			if cc != c {
				return nil, chem.NewError(chem.ErrDataMismatch, "FromChunks", "chunks of trajectory %d have different widths", i)
			}
			mats[i].Slice(ch.Start, ch.Start+r, 0, c).(*mat.Dense).Copy(ch.Data)
		}
	}
	return New(labels, mats...)
}
