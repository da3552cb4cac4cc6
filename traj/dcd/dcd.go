/*
 * dcd.go, part of chemfeat
 *
 * Copyright 2012 Raul Mera Adasme <rmera_changeforat_chem-dot-helsinki-dot-fi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License  as published by
 * the Free Software Foundation; either version 2.1 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package dcd reads and writes CHARMM/NAMD binary trajectories. Plain,
//gzip, zstd and lzw-compressed files can be read.
package dcd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"

	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
	"go.uber.org/zap"
)

const mAXTITLE int32 = 80

//DCDObj is a container for a Charmm/NAMD binary trajectory file, opened for reading.
type DCDObj struct {
	natoms     int32
	nset       int32 //frames declared in the header, not always reliable
	readLast   bool  //Have we read the last frame?
	readable   bool  //Is it ready to be read?
	filename   string
	compressed bool
	charmm     bool //Charmm traj?
	extrablock bool
	fourdim    bool
	fixed      int32 //Fixed atoms (not supported)
	headerSize int64
	fhandle    *os.File
	decomp     io.Closer //the decompressor, if any
	dcd        io.Reader //from where the data is actually read
	dcdFields  [][]float32
	cell       [6]float64
	endian     binary.ByteOrder
}

//New opens the DCD trajectory in the file filename, and reads its header. Compressed files
//are recognized by their extension (see prepSource).
func New(filename string) (*DCDObj, error) {
	traj := new(DCDObj)
	if err := traj.initRead(filename); err != nil {
		traj.Close()
		return nil, errDecorate(err, "New")
	}
	traj.dcdFields = make([][]float32, 3)
	traj.dcdFields[0] = make([]float32, int(traj.natoms))
	traj.dcdFields[1] = make([]float32, int(traj.natoms))
	traj.dcdFields[2] = make([]float32, int(traj.natoms))
	runtime.SetFinalizer(traj, func(D *DCDObj) {
		D.Close()
	})
	return traj, nil
}

//Readable returns true if the object is ready to be read from
//false otherwise. It doesnt guarantee that there is something
//to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

//Close releases the file and the decompressor, if any. It can be called more than once.
func (D *DCDObj) Close() {
	if D.decomp != nil {
		D.decomp.Close()
		D.decomp = nil
	}
	if D.fhandle != nil {
		D.fhandle.Close()
		D.fhandle = nil
	}
	D.readable = false
}

//initRead initializes a DCDObj for reading.
//It requires only the filename, which must be valid.
//It support big and little endianness, charmm or (namd>=2.1) and no
//fixed atoms.
func (D *DCDObj) initRead(name string) error {
	wrapbinerr := func(err error) error {
		return newError("Can't read header: "+err.Error(), D.filename, "binary.Read", "initRead")
	}
	D.endian = binary.LittleEndian
	NB := bytes.NewBuffer //shortness sake
	var err error
	D.dcd, err = D.prepSource(name)
	if err != nil {
		return errDecorate(err, "initRead")
	}
	var check int32
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	//The first thing we should read is an 84 (the size of the first record).
	//If this fails it means that the file is big endian.
	if check != 84 {
		D.endian = binary.BigEndian
	}
	//Then the magic number "CORD"
	magic := make([]byte, 4)
	if err := binary.Read(D.dcd, D.endian, magic); err != nil {
		return wrapbinerr(err)
	}
	if string(magic) != "CORD" {
		return newError("Wrong magic number", D.filename, "initRead")
	}
	//We first read a big chuck for random access.
	buf := make([]byte, 80)
	if err := binary.Read(D.dcd, D.endian, buf); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(NB(buf[0:]), D.endian, &D.nset); err != nil {
		return wrapbinerr(err)
	}
	//X-plor sets this last int to zero, charmm sets it to its version number.
	//if we have a charmm file we get some additional flags.
	if err := binary.Read(NB(buf[76:]), D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check == 0 {
		return newError("X-plor DCD not supported", D.filename, "initRead")
	}
	D.charmm = true
	if err := binary.Read(NB(buf[40:]), D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 0 {
		D.extrablock = true
	}
	if err := binary.Read(NB(buf[44:]), D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check == 1 {
		D.fourdim = true
	}
	if err := binary.Read(NB(buf[32:]), D.endian, &D.fixed); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 84 {
		return newError(WrongFormat, D.filename, "initRead")
	}
	var inputInt int32
	if err := binary.Read(D.dcd, D.endian, &inputInt); err != nil {
		return wrapbinerr(err)
	}
	//how many units of mAXTITLE does the title have?
	var ntitle int32
	if err := binary.Read(D.dcd, D.endian, &ntitle); err != nil {
		return wrapbinerr(err)
	}
	if ntitle < 0 || ntitle > 1000 {
		return newError(fmt.Sprintf("%s: %d title lines", WrongFormat, ntitle), D.filename, "initRead")
	}
	title := make([]byte, mAXTITLE*ntitle)
	if err := binary.Read(D.dcd, D.endian, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &inputInt); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 4 { //one must read a 4 before the natoms
		return newError(WrongFormat, D.filename, "initRead")
	}
	if err := binary.Read(D.dcd, D.endian, &D.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 4 { //and one more 4
		return newError(WrongFormat, D.filename, "initRead")
	}
	if D.natoms <= 0 {
		return newError(fmt.Sprintf("%s: %d atoms", WrongFormat, D.natoms), D.filename, "initRead")
	}
	//first record, title record and atom number record.
	D.headerSize = (4 + 4 + 80 + 4) + (4 + 4 + int64(mAXTITLE*ntitle) + 4) + (4 + 4 + 4)
	if D.fixed != 0 {
		return &Error{message: "Fixed atoms not supported", filename: D.filename, deco: []string{"initRead"}, critical: true, kind: chem.ErrConfiguration}
	}
	D.readable = true
	return nil //nothing else to do
}

//Next Reads the next frame in a DCDObj that has been initialized for read
//With New. If keep is not nil, the coordinates are put there, otherwise the frame is discarded.
//If box is given, and the trajectory has unit cell information, the 3 cell vectors are put in box[0].
func (D *DCDObj) Next(keep *v3.Matrix, box ...[]float64) error {
	if D.readLast {
		return newlastFrameError(D.filename, "Next")
	}
	if !D.readable {
		return newError(TrajUnIni, D.filename, "Next")
	}
	if err := D.nextRaw(D.dcdFields); err != nil {
		return errDecorate(err, "Next")
	}
	if D.readLast {
		//nextRaw found the end of the file before reading anything.
		D.readable = false
		return newlastFrameError(D.filename, "Next")
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		if D.extrablock {
			D.cellVectors(box[0])
		} else {
			zap.L().Debug("DCD trajectory without unit cell information", zap.String("file", D.filename))
		}
	}
	if keep == nil {
		return nil
	}
	if r, _ := keep.Dims(); int32(r) < D.natoms {
		panic("Not enough space in matrix")
	}
	for k := 0; k < int(D.natoms); k++ {
		keep.Set(k, 0, float64(D.dcdFields[0][k]))
		keep.Set(k, 1, float64(D.dcdFields[1][k]))
		keep.Set(k, 2, float64(D.dcdFields[2][k]))
	}
	return nil
}

//nextRaw reads the next frame into blocks (x, y and z coordinates).
//Reaching the end of the file before the frame starts sets D.readLast.
func (D *DCDObj) nextRaw(blocks [][]float32) error {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return newError(NotEnoughSpace, D.filename, "nextRaw")
	}
	//if there is an extra block we just skip it.
	//Sadly, even when there is an extra block, it is not present in all
	//snapshots for some trajectories, so we must use the block size to see if
	//there is an extra block or if the X block starts inmediately
	var blocksize int32
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		if errors.Is(err, io.EOF) {
			D.readLast = true
			return nil
		}
		return D.wrapReadErr(err)
	}
	//a 48-byte block is taken to be the unit cell, even if natoms is 12.
	if D.extrablock && (blocksize != D.natoms*4 || blocksize == 48) {
		block, err := D.readByteBlock(blocksize)
		if err != nil {
			return errDecorate(err, "nextRaw")
		}
		if len(block) == 48 {
			binary.Read(bytes.NewBuffer(block), D.endian, D.cell[:])
		}
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return D.wrapReadErr(err)
		}
	}
	for i := 0; i < 3; i++ {
		if i > 0 {
			if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
				return D.wrapReadErr(err)
			}
		}
		if blocksize != D.natoms*4 {
			return newError(fmt.Sprintf("%s: coordinate block of %d bytes, expected %d", WrongFormat, blocksize, D.natoms*4), D.filename, "nextRaw")
		}
		if err := D.readFloat32Block(blocksize, blocks[i]); err != nil {
			return errDecorate(err, "nextRaw")
		}
	}
	//we skip the 4-D values if they exist. Apparently this is not present in the
	//last snapshot, so an EOF here signals that we have read the last snapshot.
	if D.charmm && D.fourdim {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return D.wrapReadErr(err)
		}
		if _, err := D.readByteBlock(blocksize); err != nil {
			return errDecorate(err, "nextRaw")
		}
	}
	return nil
}

func (D *DCDObj) wrapReadErr(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return newError("truncated frame", D.filename, "binary.Read")
	}
	return newError(err.Error(), D.filename, "binary.Read")
}

//readFloat32Block reads the contents of a block into block, which must have the
//appropiate size, and checks the closing size mark.
func (D *DCDObj) readFloat32Block(blocksize int32, block []float32) error {
	var check int32
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return D.wrapReadErr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return D.wrapReadErr(err)
	}
	if check != blocksize {
		return newError(SecurityCheckFailed, D.filename, "readFloat32Block")
	}
	return nil
}

//readByteBlock reads blocksize bytes and the closing size mark of a block.
func (D *DCDObj) readByteBlock(blocksize int32) ([]byte, error) {
	var check int32
	if blocksize < 0 || blocksize > 1<<24 {
		return nil, newError(fmt.Sprintf("%s: block of %d bytes", WrongFormat, blocksize), D.filename, "readByteBlock")
	}
	block := make([]byte, blocksize)
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return nil, D.wrapReadErr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return nil, D.wrapReadErr(err)
	}
	if check != blocksize {
		return nil, newError(SecurityCheckFailed, D.filename, "readByteBlock")
	}
	return block, nil
}

//cellVectors puts the last unit cell read, as 3 row vectors, in box.
//DCD stores A, gamma, B, beta, alpha, C. Angles are in degrees, or cosines in some NAMD versions.
func (D *DCDObj) cellVectors(box []float64) {
	a, b, c := D.cell[0], D.cell[2], D.cell[5]
	angle := func(v float64) float64 {
		if math.Abs(v) <= 1 {
			return v
		}
		return math.Cos(chem.Deg2Rad(v))
	}
	cosg, cosb, cosa := angle(D.cell[1]), angle(D.cell[3]), angle(D.cell[4])
	sing := math.Sqrt(1 - cosg*cosg)
	for i := range box[:9] {
		box[i] = 0
	}
	box[0] = a
	box[3] = b * cosg
	box[4] = b * sing
	box[6] = c * cosb
	if sing != 0 {
		box[7] = c * (cosa - cosb*cosg) / sing
	}
	box[8] = math.Sqrt(math.Max(0, c*c-box[6]*box[6]-box[7]*box[7]))
}

//Len returns the number of atoms per frame in the DCDObj.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

//frameSize returns the size in bytes of each frame in a non-compressed file.
func (D *DCDObj) frameSize() int64 {
	coordblock := 4*int64(D.natoms) + 8
	size := 3 * coordblock
	if D.extrablock {
		size += 48 + 8
	}
	if D.fourdim {
		size += coordblock
	}
	return size
}

//Frames returns the number of frames in the trajectory. For a non-compressed file the
//number is obtained from the file size, without reading any coordinates. Compressed files, and
//files whose size does not agree with the header frame count (frames with and without a unit cell
//or 4-D block mixed in the same file), are counted by reading the frames from a separate handle.
func (D *DCDObj) Frames() (int, error) {
	if D.compressed {
		return countByReading(D.filename)
	}
	info, err := os.Stat(D.filename)
	if err != nil {
		return 0, newError(err.Error(), D.filename, "os.Stat", "Frames")
	}
	body := info.Size() - D.headerSize
	fs := D.frameSize()
	frames := body / fs
	if body%fs != 0 || (D.nset > 0 && int64(D.nset) != frames) {
		zap.L().Debug("DCD file size does not match the frame layout, counting frames by reading", zap.String("file", D.filename), zap.Int32("header", D.nset), zap.Int64("frames", frames), zap.Int64("leftover bytes", body%fs))
		n, err := countByReading(D.filename)
		if err != nil {
			return n, errDecorate(err, "Frames")
		}
		return n, nil
	}
	return int(frames), nil
}

func countByReading(name string) (int, error) {
	tr, err := New(name)
	if err != nil {
		return 0, errDecorate(err, "countByReading")
	}
	defer tr.Close()
	n := 0
	for {
		err := tr.Next(nil)
		if err != nil {
			if chem.IsLastFrame(err) {
				return n, nil
			}
			return n, errDecorate(err, "countByReading")
		}
		n++
	}
}

//Count returns the number of frames in the DCD file name.
func Count(name string) (int, error) {
	tr, err := New(name)
	if err != nil {
		return 0, errDecorate(err, "Count")
	}
	defer tr.Close()
	return tr.Frames()
}
