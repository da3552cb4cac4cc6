/*
 * traj.go, part of chemfeat.
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

//Package traj opens and creates trajectories, choosing the format
//from the file extension.
package traj

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/traj/dcd"
	"github.com/rmera/chemfeat/traj/stf"
	v3 "github.com/rmera/chemfeat/v3"
)

//Supported trajectory formats.
const (
	DCD = "dcd"
	STF = "stf"
	PDB = "pdb"
)

//Reader is an open trajectory. Close can be called at any time, more than once.
type Reader interface {
	chem.Traj
	Close()
}

//Writer is a trajectory open for writing.
type Writer interface {
	WNext(coords *v3.Matrix, box ...[]float64) error
	Len() int
	Close()
}

//Format returns the trajectory format for the file name, judging by its extension,
//or an error wrapping chem.ErrConfiguration if the extension is not supported.
func Format(name string) (string, error) {
	l := strings.ToLower(name)
	switch {
	case strings.HasSuffix(l, ".dcd"), strings.HasSuffix(l, ".dcd.gz"), strings.HasSuffix(l, ".dcd.zst"), strings.HasSuffix(l, ".lzw"):
		return DCD, nil
	case strings.HasSuffix(l, ".stf"), strings.HasSuffix(l, ".stz"), strings.HasSuffix(l, ".str"), strings.HasSuffix(l, ".stl"), strings.HasSuffix(l, ".sts"):
		return STF, nil
	case strings.HasSuffix(l, ".pdb"):
		return PDB, nil
	}
	return "", chem.NewError(chem.ErrConfiguration, "traj.Format", "unsupported trajectory format: %s", name)
}

//Open opens the trajectory in the file name for reading. Missing or corrupted files are
//reported here, with errors wrapping chem.ErrIO.
func Open(name string) (Reader, error) {
	f, err := Format(name)
	if err != nil {
		return nil, err
	}
	switch f {
	case DCD:
		r, err := dcd.New(name)
		if err != nil {
			return nil, err
		}
		return r, nil
	case STF:
		r, _, err := stf.New(name)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	mol, err := chem.PDBFileRead(name)
	if err != nil {
		return nil, err
	}
	return mol, nil
}

//Count returns the number of frames in the trajectory name without reading the coordinates,
//when the format allows it.
func Count(name string) (int, error) {
	f, err := Format(name)
	if err != nil {
		return 0, err
	}
	switch f {
	case DCD:
		return dcd.Count(name)
	case STF:
		return stf.Count(name)
	}
	return countPDB(name)
}

//countPDB counts the MODEL records in a PDB file. A file with atoms but no MODEL
//records has one frame.
func countPDB(name string) (int, error) {
	fin, err := os.Open(name)
	if err != nil {
		return 0, chem.NewError(chem.ErrIO, "traj.Count", "%s", err.Error())
	}
	defer fin.Close()
	models, atoms := 0, false
	scanner := bufio.NewScanner(fin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MODEL") {
			models++
		} else if !atoms && (strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM")) {
			atoms = true
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, chem.NewError(chem.ErrIO, "traj.Count", "%s: %s", name, err.Error())
	}
	if !atoms {
		return 0, chem.NewError(chem.ErrIO, "traj.Count", "no atoms in %s", name)
	}
	if models == 0 {
		models = 1
	}
	return models, nil
}

//Create creates a trajectory for writing frames of natoms atoms, in the
//format given by the extension of name. Only DCD and STF files can be written.
func Create(name string, natoms int) (Writer, error) {
	f, err := Format(name)
	if err != nil {
		return nil, err
	}
	switch f {
	case DCD:
		w, err := dcd.NewWriter(name, natoms)
		if err != nil {
			return nil, err
		}
		return w, nil
	case STF:
		w, err := stf.NewWriter(name, natoms, nil)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, chem.NewError(chem.ErrConfiguration, "traj.Create", "%s trajectories can't be written", f)
}

//Copy writes all the frames remaining in r to w. It returns the number of frames copied.
func Copy(w Writer, r Reader) (int, error) {
	if w.Len() != r.Len() {
		return 0, chem.NewError(chem.ErrDataMismatch, "traj.Copy", "%d atoms in the source, %d in the target", r.Len(), w.Len())
	}
	coords := v3.Zeros(r.Len())
	n := 0
	for {
		if err := r.Next(coords); err != nil {
			if chem.IsLastFrame(err) {
				return n, nil
			}
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		if err := w.WNext(coords); err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		n++
	}
}
