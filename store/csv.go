/*
 * csv.go, part of chemfeat.
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
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	chem "github.com/rmera/chemfeat"
	"gonum.org/v1/gonum/mat"
)

const (
	trajCol  = "traj"
	frameCol = "frame"
)

//CSVWriter writes feature rows as CSV, a chunk at a time, so a stream of chunks can be
//exported without holding all the features in memory.
type CSVWriter struct {
	w      *csv.Writer
	record []string
}

//NewCSVWriter writes the header, with "traj", "frame" and the column labels, to w and
//returns a CSVWriter for rows with len(labels) features.
func NewCSVWriter(w io.Writer, labels []string) (*CSVWriter, error) {
	if len(labels) == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "NewCSVWriter", "no columns")
	}
	W := &CSVWriter{w: csv.NewWriter(w), record: make([]string, len(labels)+2)}
	W.record[0], W.record[1] = trajCol, frameCol
	copy(W.record[2:], labels)
	if err := W.w.Write(W.record); err != nil {
		return nil, chem.NewError(chem.ErrIO, "NewCSVWriter", "%s", err.Error())
	}
	return W, nil
}

//WriteRows writes one record per row of m, which belongs to the trajectory traj and
//starts at its row start.
func (W *CSVWriter) WriteRows(traj, start int, m mat.Matrix) error {
	r, c := m.Dims()
	if c != len(W.record)-2 {
		return chem.NewError(chem.ErrDataMismatch, "CSVWriter.WriteRows", "%d columns given, %d expected", c, len(W.record)-2)
	}
	W.record[0] = strconv.Itoa(traj)
	for i := 0; i < r; i++ {
		W.record[1] = strconv.Itoa(start + i)
		for j := 0; j < c; j++ {
			W.record[j+2] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := W.w.Write(W.record); err != nil {
			return chem.NewError(chem.ErrIO, "CSVWriter.WriteRows", "%s", err.Error())
		}
	}
	return nil
}

//WriteChunk writes the rows of c.
func (W *CSVWriter) WriteChunk(c *Chunk) error {
	return chem.ErrDecorate(W.WriteRows(c.Traj, c.Start, c.Data), "CSVWriter.WriteChunk")
}

//Flush writes any buffered data to the underlying writer.
func (W *CSVWriter) Flush() error {
	W.w.Flush()
	if err := W.w.Error(); err != nil {
		return chem.NewError(chem.ErrIO, "CSVWriter.Flush", "%s", err.Error())
	}
	return nil
}

//WriteCSV writes the store as CSV: a header with "traj", "frame" and the column labels,
//followed by one record per frame.
func (S *Store) WriteCSV(w io.Writer) error {
	W, err := NewCSVWriter(w, S.labels)
	if err != nil {
		return chem.ErrDecorate(err, "WriteCSV")
	}
	for t, m := range S.mats {
		if err := W.WriteRows(t, 0, m); err != nil {
			return chem.ErrDecorate(err, "WriteCSV")
		}
	}
	return chem.ErrDecorate(W.Flush(), "WriteCSV")
}

//ReadCSV reads a store written by WriteCSV. Trajectory indexes must start at 0 and
//appear in increasing order.
func ReadCSV(r io.Reader) (*Store, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return nil, chem.NewError(chem.ErrIO, "ReadCSV", "can't read the header: %s", err.Error())
	}
	if len(header) < 3 || header[0] != trajCol || header[1] != frameCol {
		return nil, chem.NewError(chem.ErrIO, "ReadCSV", "the header must start with %s,%s and have at least one feature", trajCol, frameCol)
	}
	labels := append([]string(nil), header[2:]...)
	dim := len(labels)
	var data [][]float64 //rows of the current trajectory
	var mats []*mat.Dense
	flush := func() {
		if len(data) == 0 {
			return
		}
		m := mat.NewDense(len(data), dim, nil)
		for i, row := range data {
			m.SetRow(i, row)
		}
		mats = append(mats, m)
		data = nil
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, chem.NewError(chem.ErrIO, "ReadCSV", "%s", err.Error())
		}
		t, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, chem.NewError(chem.ErrIO, "ReadCSV", "line %d: bad trajectory index %q", line, record[0])
		}
		if t != len(mats) {
			flush()
			if t != len(mats) {
				return nil, chem.NewError(chem.ErrIO, "ReadCSV", "line %d: trajectory %d after trajectory %d", line, t, len(mats)-1)
			}
		}
		row := make([]float64, dim)
		for j := range row {
			row[j], err = strconv.ParseFloat(record[j+2], 64)
			if err != nil {
				return nil, chem.NewError(chem.ErrIO, "ReadCSV", "line %d, column %s: %s", line, labels[j], err.Error())
			}
		}
		data = append(data, row)
	}
	flush()
	if len(mats) == 0 {
		return nil, chem.NewError(chem.ErrIO, "ReadCSV", "no frames")
	}
	return New(labels, mats...)
}
