/*
 * stf.go, part of chemfeat.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
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

package stf

import (
	"bufio"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	lzwLitwidth int = 8
	defaultPrec     = 2
)

//StfW is a STF trajectory opened for writing.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	natoms    int
	filename  string
	writeable bool
	prec      int
	line      []byte
}

//Close flushes the compressor and closes the file. It can be called more than once.
func (S *StfW) Close() {
	if S == nil || !S.writeable {
		return
	}
	if err := S.h.Close(); err != nil {
		zap.L().Error("Can't flush STF trajectory", zap.String("file", S.filename), zap.Error(err))
	}
	if err := S.f.Close(); err != nil {
		zap.L().Error("Can't close STF trajectory", zap.String("file", S.filename), zap.Error(err))
	}
	S.writeable = false
}

//Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

//WNextDense writes a frame given as a gonum matrix.
func (S *StfW) WNextDense(dcoord *mat.Dense) error {
	return errDecorate(S.WNext(v3.Dense2Matrix(dcoord)), "WNextDense")
}

//WNext writes coord as the next frame of the trajectory. If box is given, and has at least 9 elements,
//the box vectors are also written.
func (S *StfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return newError(TrajUnIniWrite, S.filename, "WNext")
	}
	if coord == nil {
		return newError(NilCoordinates, S.filename, "WNext")
	}
	if v := coord.NVecs(); v != S.natoms {
		e := newError(fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, "WNext")
		e.kind = chem.ErrDataMismatch
		return e
	}
	for i := 0; i < S.natoms; i++ {
		S.line = coordsEncode(S.line[:0], coord.Vec3(i), S.prec)
		if _, err := S.h.Write(S.line); err != nil {
			return newError(err.Error(), S.filename, "Write", "WNext")
		}
	}
	var err error
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err = fmt.Fprintf(S.h, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", b[0],
			b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		_, err = S.h.Write([]byte("*\n"))
	}
	if err != nil {
		return newError(err.Error(), S.filename, "Write", "WNext")
	}
	return nil
}

//compressors by the last letter of the file extension.
func writerFor(name string, level int) (func(io.Writer) (io.WriteCloser, error), error) {
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)), zstd.WithEncoderConcurrency(1))
	}
	switch format(name) {
	case 'l':
		return func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }, nil
	case 'f', 's':
		return zstdwriter, nil
	case 'z':
		return func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, min(level, gzip.BestCompression)) }, nil
	case 'r':
		return func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, min(level, flate.BestCompression)) }, nil
	}
	return nil, fmt.Errorf("unknown STF extension in %s", name)
}

func format(name string) byte {
	if len(name) == 0 {
		return 0
	}
	return strings.ToLower(name)[len(name)-1]
}

//NewWriter creates a STF trajectory for writing. The header is written at the beginning
//of the file, and it will contain at least the precision key ("prec"). The optional compressionLevel
//goes from 1 (fastest) to 9 (smallest).
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	level := 6
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	if natoms <= 0 {
		e := newError(fmt.Sprintf("can't write frames of %d atoms", natoms), name, "NewWriter")
		e.kind = chem.ErrConfiguration
		return nil, e
	}
	AnyNewWriter, err := writerFor(name, level)
	if err != nil {
		e := newError(err.Error(), name, "NewWriter")
		e.kind = chem.ErrConfiguration
		return nil, e
	}
	S := &StfW{natoms: natoms, filename: name, prec: defaultPrec}
	hd := map[string]string{"prec": strconv.Itoa(defaultPrec)}
	for k, v := range header {
		hd[k] = v
	}
	if p, err := strconv.Atoi(hd["prec"]); err == nil && p > 0 {
		S.prec = p
	} else {
		zap.L().Warn("Invalid precision for STF trajectory, will use the default", zap.String("file", name), zap.String("prec", hd["prec"]))
		hd["prec"] = strconv.Itoa(defaultPrec)
	}
	S.f, err = os.Create(name)
	if err != nil {
		return nil, newError(err.Error(), name, "os.Create", "NewWriter")
	}
	S.h, err = AnyNewWriter(S.f)
	if err != nil {
		S.f.Close()
		return nil, newError("Can't initialize the compressor "+err.Error(), S.filename, "NewWriter")
	}
	S.writeable = true
	keys := make([]string, 0, len(hd))
	for k := range hd {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, hd[k])
	}
	fmt.Fprintf(&sb, "** %d\n", S.natoms)
	if _, err := S.h.Write([]byte(sb.String())); err != nil {
		S.Close()
		return nil, newError(err.Error(), S.filename, "Write", "NewWriter")
	}
	return S, nil
}

//StfR is a STF trajectory opened for reading.
type StfR struct {
	f        *os.File
	decomp   io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
	ended    bool
}

//zstdCloser adapts *zstd.Decoder to io.ReadCloser
type zstdCloser struct {
	*zstd.Decoder
}

//Close Closes the decoder. It can not be used after this call
func (s zstdCloser) Close() error {
	s.Decoder.Close()
	return nil
}

func readerFor(name string) func(io.Reader) (io.ReadCloser, error) {
	switch format(name) {
	case 'l':
		return func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'r':
		return func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	}
	return func(a io.Reader) (io.ReadCloser, error) {
		r, err := zstd.NewReader(a, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zstdCloser{r}, nil
	}
}

func coordsEncode(dst []byte, f [3]float64, prec int) []byte {
	p := 100.0
	if prec != 2 { //2 is the current value, so we do nothign in that case
		p = math.Pow(10.0, float64(prec))
	}
	for i, v := range f {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendInt(dst, int64(math.RoundToEven(v*p)), 10)
	}
	return append(dst, '\n')
}

func coordsDecode(str string, temp *[3]float64, prec int) error {
	p := 100.0
	if prec != 2 { //2 is just the current value, so we can save the operation
		p = math.Pow(10.0, float64(prec))
	}
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formated coordinates line in stf: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s). Error: %s", i, v, err.Error())
		}
		temp[i] = float64(f) / p
	}
	return nil
}

//open opens name and sets up the decompressing reader.
func (S *StfR) open(name string) error {
	var err error
	S.filename = name
	S.f, err = os.Open(name)
	if err != nil {
		return newError(err.Error(), name, "os.Open")
	}
	S.decomp, err = readerFor(name)(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return newError("Can't initialize the decompressor "+err.Error(), name, "open")
	}
	S.h = bufio.NewReader(S.decomp)
	return nil
}

//readHeader reads the header, and returns it as a map
func (S *StfR) readHeader() (map[string]string, error) {
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			return nil, newError("Can't read header "+err.Error(), S.filename, "readHeader")
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				return nil, newError(fmt.Sprintf("Can't read atom number from '%s'", str), S.filename, "readHeader")
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil || S.natoms <= 0 {
				return nil, newError(fmt.Sprintf("Can't read atom number from '%s'", nat[1]), S.filename, "readHeader")
			}
			return m, nil
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			return nil, newError("Malformed header line: "+str, S.filename, "readHeader")
		}
		m[kv[0]] = kv[1]
	}
}

//New opens a STF trajectory for reading, and returns a pointer
//to the handle, a map with the metadata
//and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	S := new(StfR)
	S.prec = defaultPrec
	if err := S.open(name); err != nil {
		return nil, nil, errDecorate(err, "New")
	}
	m, err := S.readHeader()
	if err != nil {
		S.Close()
		return nil, nil, errDecorate(err, "New")
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			zap.L().Warn("Invalid precision for STF trajectory, will assume the default", zap.String("file", S.filename), zap.String("prec", p))
		}
	}
	S.readable = true
	return S, m, nil
}

//Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

//Next puts in the given matrix (c) the coordinates for the next frame of the trajectory
//and, if given, and the information is present, puts the box vector information in box
//If c is nil, the frame is read, and checked, but discarded.
//At the end of the trajectory, a chem.LastFrameError is returned, and the file is closed.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if S.ended {
		return newlastFrameError(S.filename, "Next")
	}
	if !S.readable {
		return newError(TrajUnIniRead, S.filename, "Next")
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadSlice('\n')
		if err != nil {
			//EOF should only happen when reading the first atom
			if errors.Is(err, io.EOF) && i == 0 && len(b) == 0 {
				//nothing bad happened here, the trajectory just ended.
				S.Close()
				S.ended = true
				return newlastFrameError(S.filename, "Next")
			}
			return newError(fmt.Sprintf("%s: atom %d: %s", ReadError, i, err.Error()), S.filename, "Next")
		}
		err = coordsDecode(string(b[:len(b)-1]), &temp, S.prec)
		if err != nil {
			return newError(err.Error(), S.filename, "Next")
		}
		if c == nil {
			continue //We ignore this whole frame, reading the content but not saving it.
			//Note that we still check the frame for correctness.
		}
		for j, v := range temp {
			c.Set(i, j, v)
		}
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return newError("Can't read the frame termination mark: "+err.Error(), S.filename, "Next")
	}
	if len(s) == 0 || s[0] != '*' {
		return newError("Wrong number of atoms in frame", S.filename, "Next")
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		S.readBox(s, box[0])
	}
	return nil
}

func (S *StfR) readBox(s string, box []float64) {
	fields := strings.Fields(s)
	if len(fields) < 10 { // The "*" and the 9 numbers
		zap.L().Debug("STF frame without box information", zap.String("file", S.filename))
		return
	}
	var errbox error
	for j, v := range fields[1:10] {
		box[j], errbox = strconv.ParseFloat(v, 64)
		if errbox != nil {
			break
		}
	}
	//If we got an error reading any of the values, we just set the whole thing to zero
	//and log, no error returned.
	if errbox != nil {
		zap.L().Warn("Failed to read box in a frame", zap.String("file", S.filename), zap.Error(errbox))
		for i := range box[:9] {
			box[i] = 0.0
		}
	}
}

//Close closes the object, and marks it as unreadable. It can be called more than once.
func (S *StfR) Close() {
	if S.decomp != nil {
		S.decomp.Close()
		S.decomp = nil
	}
	if S.f != nil {
		S.f.Close()
		S.f = nil
	}
	S.readable = false
}

//Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

//Count returns the number of frames in the STF file name. The frame termination
//marks are counted, without parsing any coordinates.
func Count(name string) (int, error) {
	S := new(StfR)
	if err := S.open(name); err != nil {
		return 0, errDecorate(err, "Count")
	}
	defer S.Close()
	if _, err := S.readHeader(); err != nil {
		return 0, errDecorate(err, "Count")
	}
	frames := 0
	lines := 0
	for {
		b, err := S.h.ReadSlice('\n')
		if len(b) > 0 && b[0] == '*' {
			if lines != S.natoms {
				return frames, newError(fmt.Sprintf("frame %d has %d atoms, %d expected", frames, lines, S.natoms), name, "Count")
			}
			frames++
			lines = 0
		} else if len(b) > 0 {
			lines++
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			//a line longer than the buffer, only possible for the box. We drop the rest.
			if _, err = S.h.ReadString('\n'); err == nil {
				continue
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if lines != 0 {
					return frames, newError("truncated last frame", name, "Count")
				}
				return frames, nil
			}
			return frames, newError(err.Error(), name, "Count")
		}
	}
}
