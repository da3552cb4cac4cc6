/*
 * chem.go, part of chemfeat.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

package chem

import (
	"fmt"

	v3 "github.com/rmera/chemfeat/v3"
)

//Note: Many funcitons here panic instead of returning errors. This is because they are "fundamental"
//functions. If something goes wrong here, the program is way-most likely wrong and should
//crash. Most panics are related to using the funciton on a nil object or trying to access out-of bounds
//fields

//Atom contains the atoms read except for the coordinates, which will be in a matrix
//and the b-factors, which are in a separate slice of float64.
type Atom struct {
	Name    string
	ID      int
	Molname string
	MolID   int
	Chain   string
	Mass    float64
	Symbol  string
	Het     bool // is hetatm in the pdb file?
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic(ErrNilAtom)
	}
	Newat := *A
	return &Newat
}

//Topology contains information about a molecule which is not expected to change in time (i.e. everything except for coordinates and b-factors)
type Topology struct {
	Atoms []*Atom
}

//NewTopology returns a topology with the atoms given. The atoms are not copied.
func NewTopology(atoms []*Atom) *Topology {
	return &Topology{Atoms: atoms}
}

//Atom returns the Atom corresponding to the index i
//of the Atom slice in the Topology. Panics if
//out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic(fmt.Sprintf("Topology: requested atom %d out of range (%d atoms)", i, T.Len()))
	}
	return T.Atoms[i]
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Masses returns a slice of float64 with the masses of the atoms in the topology, or nil and an error if they have not been calculated
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i := 0; i < T.Len(); i++ {
		thisatom := T.Atom(i)
		if thisatom.Mass == 0 {
			return nil, NewError(ErrDataMismatch, "Masses", "Not all the masses have been obtained: atom %d", i)
		}
		mass[i] = thisatom.Mass
	}
	return mass, nil
}

//Molecule contains all the info for a molecule in many states. The info that is expected to change between states,
//Coordinates and b-factors are stored separately from other atomic info.
//A Molecule can be read as a trajectory, each of its sets of coordinates being a frame.
type Molecule struct {
	*Topology
	Coords   []*v3.Matrix
	Bfactors [][]float64
	current  int
}

//NewMolecule makes a molecule with ats atoms, coords coordinates, and bfactors b-factors
//it checks that the lenghts of the objects are consistent.
func NewMolecule(coords []*v3.Matrix, ats Atomer, bfactors [][]float64) (*Molecule, error) {
	if ats == nil {
		return nil, NewError(ErrConfiguration, "NewMolecule", ErrNilData)
	}
	atoms := make([]*Atom, 0, ats.Len())
	for i := 0; i < ats.Len(); i++ {
		atoms = append(atoms, ats.Atom(i))
	}
	for i, c := range coords {
		if c.NVecs() != len(atoms) {
			return nil, NewError(ErrDataMismatch, "NewMolecule", "%s: frame %d has %d atoms, topology has %d", ErrInconsistentData, i, c.NVecs(), len(atoms))
		}
	}
	return &Molecule{Topology: NewTopology(atoms), Coords: coords, Bfactors: bfactors}, nil
}

//Readable returns true if the molecule has a frame that has not been read with Next.
func (M *Molecule) Readable() bool {
	return M.current < len(M.Coords)
}

//Next puts the next frame into V and returns an error or nil
//The box argument is never used.
func (M *Molecule) Next(V *v3.Matrix, box ...[]float64) error {
	if M.current >= len(M.Coords) {
		return newlastFrameError("", M.current)
	}
	M.current++
	if V == nil {
		return nil
	}
	V.Copy(M.Coords[M.current-1])
	return nil
}

//InitRead rewinds the molecule so the frames can be read again with Next.
func (M *Molecule) InitRead() error {
	if M == nil || len(M.Coords) == 0 {
		return NewError(ErrIO, "InitRead", "Bad molecule")
	}
	M.current = 0
	return nil
}

//Close does nothing, it is there so a Molecule can be used wherever a TrajCloser is needed.
func (M *Molecule) Close() {}

//lastFrameError implements chem.LastFrameError for the Molecule trajectory.
type lastFrameError struct {
	fileName string
	frame    int
	deco     []string
}

//Error returns an error message string.
func (E *lastFrameError) Error() string {
	return "EOF" //: Last frame in mol-based trajectory from file %10s reached at frame %10d", E.fileName, E.frame)
}

//Format returns the format used by the trajectory that returned the error.
func (E *lastFrameError) Format() string {
	return "mol"
}

//Frame returns the frame at which the error was detected.
func (E *lastFrameError) Frame() int {
	return E.frame
}

func (E *lastFrameError) Critical() bool {
	return false
}

//FileName returns the name of the file from where the trajectory that gave the error is read.
func (E *lastFrameError) FileName() string {
	return E.fileName
}

//NormalLastFrameTermination does nothing, it is there so we can have an interface unifying all
//"normal termination" errors so they can be filtered out by type switch.
func (E *lastFrameError) NormalLastFrameTermination() {
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (E *lastFrameError) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

func newlastFrameError(filename string, frame int) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.frame = frame
	return e
}
