/*
 * dcd_write.go, part of chemfeat
 *
 * Copyright 2021 Raul Mera Adasme <rmera_changeforat_chem-dot-helsinki-dot-fi>
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
 *
 */

package dcd

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"

	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
)

//DCDWObj is a container for an Charmm/NAMD binary trajectory file
//opened for writing. Only plain (non-compressed) files can be written, since
//the number of frames has to be updated at the beginning of the file after each write.
type DCDWObj struct {
	natoms    int32
	writable  bool //Is it ready to be written on
	filename  string
	frames    int32
	dcd       *os.File //The DCD file
	dcdFields [][]float32
	endian    binary.ByteOrder
}

//NewWriter initializes a DCD trajectory for writing.
func NewWriter(filename string, natoms int) (*DCDWObj, error) {
	if c := Compression(filename); c != "" {
		return nil, &Error{message: fmt.Sprintf("can't write %s-compressed DCD files", c), filename: filename, deco: []string{"NewWriter"}, critical: true, kind: chem.ErrConfiguration}
	}
	traj := new(DCDWObj)
	traj.natoms = int32(natoms)
	traj.filename = filename
	if err := traj.initWrite(filename); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	traj.dcdFields = make([][]float32, 3)
	traj.dcdFields[0] = make([]float32, natoms)
	traj.dcdFields[1] = make([]float32, natoms)
	traj.dcdFields[2] = make([]float32, natoms)
	return traj, nil
}

//Close closes the file. It can be called more than once.
func (D *DCDWObj) Close() {
	if !D.writable {
		return
	}
	D.dcd.Close()
	D.writable = false
}

//Len returns the number of atoms per frame.
func (D *DCDWObj) Len() int {
	return int(D.natoms)
}

//initWrite creates the file and writes the header, for a little-endian,
//CHARMM-flavored trajectory without unit cell or fixed atoms.
func (D *DCDWObj) initWrite(name string) error {
	//if it's zero it means it hasn't been set.
	if D.natoms <= 0 {
		return &Error{message: "Trajectory not initialized correctly, the number of atoms is not positive", filename: D.filename, deco: []string{"initWrite"}, critical: true, kind: chem.ErrConfiguration}
	}
	D.endian = binary.LittleEndian
	var err error
	D.dcd, err = os.Create(name)
	if err != nil {
		return newError(err.Error(), D.filename, "os.Create", "initWrite")
	}
	var title [2 * mAXTITLE]byte
	copy(title[:], fmt.Sprintf("%-79s", "Created by chemfeat"))
	title[len(title)-1] = byte('\000') //null-ended
	//The header, as a sequence of values.
	header := []any{
		int32(84), []byte("CORD"),
		int32(0),              //The frames in the file go here, will update this part after every write.
		int32(0),              //Initial time
		int32(1),              //step interval (nsavc)
		[6]int32{},            //5 zeros plus natom-nfreat
		float32(1),            //delta time
		int32(0),              //No unit cell
		[8]int32{},            //8 zeros for charmm
		int32(24),             //charmm version, let's say, 24
		int32(84),             //closes the first record
		int32(4 + 2*mAXTITLE), //the title record
		int32(2),
		title,
		int32(4 + 2*mAXTITLE),
		int32(4), D.natoms, int32(4), //ok, this is important, the number of atoms in each snapshot
	}
	for _, v := range header {
		if err := binary.Write(D.dcd, D.endian, v); err != nil {
			D.dcd.Close()
			return newError(err.Error(), D.filename, "binary.Write", "initWrite")
		}
	}
	runtime.SetFinalizer(D, func(D *DCDWObj) {
		D.Close()
	})
	D.writable = true
	return nil //nothing else to do
}

//WNext writes the next frame to the trajectory.
//the box isn't actually used, so far. It's only there for compatibility.
func (D *DCDWObj) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !D.writable {
		return newError(TrajUnIniWrite, D.filename, "WNext")
	}
	if towrite == nil {
		return &Error{message: "got nil coordinates", filename: D.filename, deco: []string{"WNext"}, critical: true, kind: chem.ErrDataMismatch}
	}
	if int32(towrite.NVecs()) != D.natoms {
		return &Error{message: fmt.Sprintf("%d coordinates given, %d expected", towrite.NVecs(), D.natoms), filename: D.filename, deco: []string{"WNext"}, critical: true, kind: chem.ErrDataMismatch}
	}
	//This is easier to write to the dcd
	for k := 0; k < int(D.natoms); k++ {
		D.dcdFields[0][k] = float32(towrite.At(k, 0))
		D.dcdFields[1][k] = float32(towrite.At(k, 1))
		D.dcdFields[2][k] = float32(towrite.At(k, 2))
	}
	if err := D.wnextRaw(D.dcdFields); err != nil {
		return errDecorate(err, "WNext")
	}
	D.frames++
	return errDecorate(D.updateFrames(), "WNext")
}

//wnextRaw writes the x, y and z blocks of one frame.
func (D *DCDWObj) wnextRaw(blocks [][]float32) error {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return newError(NotEnoughSpace, D.filename, "wnextRaw")
	}
	for _, b := range blocks {
		if err := D.writeFloat32Block(b); err != nil {
			return errDecorate(err, "wnextRaw")
		}
	}
	return nil
}

//writeFloat32Block writes a block of float32s to the file, surrounded by its size
func (D *DCDWObj) writeFloat32Block(block []float32) error {
	var blocksize int32 = int32(len(block)) * 4
	for _, v := range []any{blocksize, block, blocksize} {
		if err := binary.Write(D.dcd, D.endian, v); err != nil {
			return newError(err.Error(), D.filename, "binary.Write", "writeFloat32Block")
		}
	}
	return nil
}

//DCD is silly enough to require the number of frames at the begining.
func (D *DCDWObj) updateFrames() error {
	currentoffset, err := D.dcd.Seek(0, io.SeekCurrent) //we'll need it to go back
	if err != nil {
		return newError(err.Error(), D.filename, "dcd.Seek", "updateFrames")
	}
	//the frame number goes after the first record size and the magic number.
	if _, err = D.dcd.Seek(8, io.SeekStart); err != nil {
		return newError(err.Error(), D.filename, "dcd.Seek", "updateFrames")
	}
	if err := binary.Write(D.dcd, D.endian, D.frames); err != nil {
		return newError(err.Error(), D.filename, "binary.Write", "updateFrames")
	}
	//we go back to the part of the file we were writing
	if _, err = D.dcd.Seek(currentoffset, io.SeekStart); err != nil {
		return newError(err.Error(), D.filename, "dcd.Seek", "updateFrames")
	}
	return nil
}
