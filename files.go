/*
 * files.go, part of chemfeat.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/chemfeat/v3"
)

//PDB_read family

//Parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates and b-factors, which  are returned
// separately as an array of 3 float64 and a float64, respectively
func readFullPDBLine(line string, contlines int) (*Atom, [3]float64, float64, error) {
	var coords [3]float64
	if len(line) < 54 {
		return nil, coords, 0, NewError(ErrIO, "readFullPDBLine", "Line %d too short to be an ATOM record", contlines)
	}
	err := make([]error, 5) //accumulate errors to check at the end of the read line.
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	//PDB says that pos. 17 is for other thing but I see that is
	//used for residue name in many cases
	atom.Molname = strings.TrimSpace(line[17:20])
	atom.Chain = string(line[21])
	atom.MolID, err[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	coords[0], err[2] = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	coords[1], err[3] = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	coords[2], err[4] = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	var bfactor float64
	if len(line) >= 66 {
		//we don't really care if there are no b-factors.
		bfactor, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	}
	if len(line) >= 78 {
		atom.Symbol = strings.TrimSpace(line[76:78])
		if len(atom.Symbol) == 2 {
			atom.Symbol = atom.Symbol[:1] + strings.ToLower(atom.Symbol[1:])
		}
	}
	//This part tries to guess the symbol from the atom name, if it has not been read
	if atom.Symbol == "" {
		atom.Symbol, _ = symbolFromName(atom.Name)
	}
	for i := range err {
		if err[i] != nil {
			return nil, coords, 0, NewError(ErrIO, "readFullPDBLine", "Can't parse line %d: %s", contlines, err[i].Error())
		}
	}
	atom.Mass = symbolMass[atom.Symbol] //Not error checking
	return atom, coords, bfactor, nil
}

//PDBFileRead reads the atomic entries for a PDB file. Each MODEL in the file becomes a
//set of coordinates (a frame) in the returned Molecule. All models must have the same
//number of atoms.
func PDBFileRead(pdbname string) (*Molecule, error) {
	pdbfile, err := os.Open(pdbname)
	if err != nil {
		return nil, NewError(ErrIO, "PDBFileRead", "%s", err.Error())
	}
	defer pdbfile.Close()
	mol, err := PDBRead(pdbfile)
	if err != nil {
		return nil, ErrDecorate(err, "PDBFileRead: "+pdbname)
	}
	return mol, nil
}

//PDBRead reads a PDB-formatted stream from pdb and returns the corresponding Molecule.
func PDBRead(pdb io.Reader) (*Molecule, error) {
	molecule := make([]*Atom, 0)
	coords := make([][]float64, 1)
	coords[0] = make([]float64, 0)
	bfactors := make([][]float64, 1)
	bfactors[0] = make([]float64, 0)
	firstModel := true //are we reading the first model? if not we only save coordinates
	lastatom := 0      //atoms read in the current model
	scanner := bufio.NewScanner(pdb)
	contlines := 0
	for scanner.Scan() {
		line := scanner.Text()
		contlines++
		if strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM") {
			atom, c, bfactemp, err := readFullPDBLine(line, contlines)
			if err != nil {
				return nil, ErrDecorate(err, "PDBRead")
			}
			if firstModel {
				//atom data other than coords is the same in all models so just read for the first.
				molecule = append(molecule, atom)
			}
			last := len(coords) - 1
			coords[last] = append(coords[last], c[0], c[1], c[2])
			bfactors[last] = append(bfactors[last], bfactemp)
			lastatom++
		} else if strings.HasPrefix(line, "MODEL") && lastatom > 0 {
			//Coordinates read before this record belong to the previous model.
			firstModel = false
			coords = append(coords, make([]float64, 0, 3*len(molecule)))
			bfactors = append(bfactors, make([]float64, 0, len(molecule)))
			lastatom = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewError(ErrIO, "PDBRead", "%s", err.Error())
	}
	if len(molecule) == 0 {
		return nil, NewError(ErrIO, "PDBRead", "No atoms found in PDB data")
	}
	mcoords := make([]*v3.Matrix, 0, len(coords))
	for i, c := range coords {
		if len(c) != 3*len(molecule) {
			return nil, NewError(ErrIO, "PDBRead", "%s: model %d has %d atoms, the first one has %d", ErrInconsistentData, i+1, len(c)/3, len(molecule))
		}
		m, err := v3.NewMatrix(c)
		if err != nil {
			return nil, NewError(ErrIO, "PDBRead", "%s", err.Error())
		}
		mcoords = append(mcoords, m)
	}
	return NewMolecule(mcoords, NewTopology(molecule), bfactors)
}

//End PDB_read family

//PDBFileWrite writes a PDB file with the file name pdbname, the coordinates coords
//and the topology top. bfact can be nil, in which case zeros are written.
func PDBFileWrite(pdbname string, coords *v3.Matrix, top Atomer, bfact []float64) error {
	out, err := os.Create(pdbname)
	if err != nil {
		return NewError(ErrIO, "PDBFileWrite", "%s", err.Error())
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	if err := PDBWrite(w, coords, top, bfact); err != nil {
		return ErrDecorate(err, "PDBFileWrite")
	}
	if err := w.Flush(); err != nil {
		return NewError(ErrIO, "PDBFileWrite", "%s", err.Error())
	}
	return nil
}

//PDBWrite writes the PDB representation of coords and top to out.
func PDBWrite(out io.Writer, coords *v3.Matrix, top Atomer, bfact []float64) error {
	if coords.NVecs() != top.Len() {
		return NewError(ErrDataMismatch, "PDBWrite", "%s: %d coordinates, %d atoms", ErrInconsistentData, coords.NVecs(), top.Len())
	}
	if bfact != nil && len(bfact) != top.Len() {
		return NewError(ErrDataMismatch, "PDBWrite", "%s: %d b-factors, %d atoms", ErrInconsistentData, len(bfact), top.Len())
	}
	for i := 0; i < top.Len(); i++ {
		at := top.Atom(i)
		first := "ATOM  "
		if at.Het {
			first = "HETATM"
		}
		var b float64
		if bfact != nil {
			b = bfact[i]
		}
		chain := at.Chain
		if chain == "" {
			chain = " "
		}
		c := coords.Vec3(i)
		_, err := fmt.Fprintf(out, "%-6s%5d %-4s %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n",
			first, i+1, at.Name, at.Molname, chain[:1], at.MolID, c[0], c[1], c[2], 1.0, b, at.Symbol)
		if err != nil {
			return NewError(ErrIO, "PDBWrite", "%s", err.Error())
		}
	}
	if _, err := fmt.Fprintln(out, "END"); err != nil {
		return NewError(ErrIO, "PDBWrite", "%s", err.Error())
	}
	return nil
}
