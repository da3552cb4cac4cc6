/*
 * store_test.go, part of chemfeat.
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

package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	chem "github.com/rmera/chemfeat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

//seq returns a r x c matrix with the values start, start+1...
func seq(r, c int, start float64) *mat.Dense {
	d := make([]float64, r*c)
	for i := range d {
		d[i] = start + float64(i)
	}
	return mat.NewDense(r, c, d)
}

func TestStore(Te *testing.T) {
	S, err := New([]string{"a", "b"}, seq(3, 2, 0), seq(5, 2, 100))
	require.NoError(Te, err)
	assert.Equal(Te, 2, S.Len())
	assert.Equal(Te, 2, S.Dim())
	assert.Equal(Te, []int{3, 5}, S.Frames())
	assert.Equal(Te, 8, S.TotalFrames())
	col, err := S.Column(1)
	require.NoError(Te, err)
	assert.Equal(Te, []float64{1, 3, 5, 101, 103, 105, 107, 109}, col)
	_, err = S.Column(2)
	assert.True(Te, errors.Is(err, chem.ErrOutOfRange))

	c := S.Concat()
	r, _ := c.Dims()
	assert.Equal(Te, 8, r)
	assert.Equal(Te, 100.0, c.At(3, 0))

	st, err := S.Strided(2)
	require.NoError(Te, err)
	assert.Equal(Te, []int{2, 3}, st.Frames())
	assert.Equal(Te, 104.0, st.Traj(1).At(1, 0))
	_, err = S.Strided(0)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))

	sub, err := S.Subset(1)
	require.NoError(Te, err)
	assert.Equal(Te, []int{5}, sub.Frames())
	_, err = S.Subset(2)
	assert.True(Te, errors.Is(err, chem.ErrOutOfRange))

	cols, err := S.Columns(1)
	require.NoError(Te, err)
	assert.Equal(Te, []string{"b"}, cols.Labels())
	assert.Equal(Te, 103.0, cols.Traj(1).At(1, 0))
}

func TestNewErrors(Te *testing.T) {
	_, err := New(nil, seq(3, 2, 0), seq(3, 3, 0))
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = New([]string{"a"}, seq(3, 2, 0))
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = New(nil)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	S, err := New(nil, seq(2, 3, 0))
	require.NoError(Te, err)
	assert.Equal(Te, []string{"f0", "f1", "f2"}, S.Labels())
}

func TestFromChunks(Te *testing.T) {
	full := seq(7, 2, 0)
	chunks := []*Chunk{
		{Traj: 0, Start: 0, Data: mat.DenseCopyOf(full.Slice(0, 3, 0, 2))},
		{Traj: 0, Start: 3, Data: mat.DenseCopyOf(full.Slice(3, 6, 0, 2))},
		{Traj: 0, Start: 6, Data: mat.DenseCopyOf(full.Slice(6, 7, 0, 2))},
		{Traj: 1, Start: 0, Data: seq(2, 2, 50)},
	}
	S, err := FromChunks(nil, 2, chunks)
	require.NoError(Te, err)
	assert.True(Te, mat.Equal(full, S.Traj(0)))
	assert.Equal(Te, []int{7, 2}, S.Frames())

	_, err = FromChunks(nil, 2, chunks[1:])
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = FromChunks(nil, 3, chunks)
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
}

func TestCSV(Te *testing.T) {
	S, err := New([]string{"d(CA1,CA2)", "phi ALA2"}, seq(3, 2, 0.5), seq(2, 2, -7.25))
	require.NoError(Te, err)
	var buf bytes.Buffer
	require.NoError(Te, S.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(Te, lines, 6)
	assert.Equal(Te, `traj,frame,"d(CA1,CA2)",phi ALA2`, lines[0])
	assert.Equal(Te, "0,0,0.5,1.5", lines[1])
	assert.Equal(Te, "1,1,-5.25,-4.25", lines[5])

	back, err := ReadCSV(&buf)
	require.NoError(Te, err)
	if diff := cmp.Diff(S.Labels(), back.Labels()); diff != "" {
		Te.Errorf("labels (-want +got):\n%s", diff)
	}
	for i := 0; i < S.Len(); i++ {
		assert.True(Te, mat.Equal(S.Traj(i), back.Traj(i)))
	}
	_, err = ReadCSV(strings.NewReader("traj,frame,a\n1,0,2\n"))
	assert.True(Te, errors.Is(err, chem.ErrIO))
	_, err = ReadCSV(strings.NewReader("x,y\n"))
	assert.True(Te, errors.Is(err, chem.ErrIO))
}

func TestCSVChunks(Te *testing.T) {
	full := seq(5, 2, 0.25)
	other := seq(2, 2, 10)
	S, err := New([]string{"a", "b"}, full, other)
	require.NoError(Te, err)
	var want bytes.Buffer
	require.NoError(Te, S.WriteCSV(&want))

	var got bytes.Buffer
	W, err := NewCSVWriter(&got, []string{"a", "b"})
	require.NoError(Te, err)
	for _, c := range []*Chunk{
		{Traj: 0, Start: 0, Data: mat.DenseCopyOf(full.Slice(0, 2, 0, 2))},
		{Traj: 0, Start: 2, Data: mat.DenseCopyOf(full.Slice(2, 5, 0, 2))},
		{Traj: 1, Start: 0, Data: other},
	} {
		require.NoError(Te, W.WriteChunk(c))
	}
	require.NoError(Te, W.Flush())
	assert.Equal(Te, want.String(), got.String())

	err = W.WriteChunk(&Chunk{Data: seq(1, 3, 0)})
	assert.True(Te, errors.Is(err, chem.ErrDataMismatch))
	_, err = NewCSVWriter(&got, nil)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
}
