/*
 * handy.go, part of chemfeat.
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

import "math"

func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}

func Rad2Deg(f float64) float64 {
	return f * 180 / math.Pi
}

//Select returns the indexes of all the atoms in top for which keep returns true,
//in topology order.
func Select(top Atomer, keep func(*Atom) bool) []int {
	ret := make([]int, 0, top.Len()/4)
	for i := 0; i < top.Len(); i++ {
		if keep(top.Atom(i)) {
			ret = append(ret, i)
		}
	}
	return ret
}

//SelectNames selects the atoms whose name is in names (ex. "CA").
func SelectNames(top Atomer, names ...string) []int {
	return Select(top, func(a *Atom) bool { return isInString(names, a.Name) })
}

//SelectResidues selects all the atoms belonging to the residues with the given IDs.
func SelectResidues(top Atomer, resids ...int) []int {
	return Select(top, func(a *Atom) bool { return isInInt(resids, a.MolID) })
}

//SelectHeavy selects all non-hydrogen atoms.
func SelectHeavy(top Atomer) []int {
	return Select(top, func(a *Atom) bool { return a.Symbol != "H" })
}

//SelectBackbone selects the protein backbone atoms, N, CA, C and O.
func SelectBackbone(top Atomer) []int {
	return SelectNames(top, "N", "CA", "C", "O")
}

//Molecules2Atoms gets a selection list from a list of residues.
//It select all the atoms that form part of the residues in the list.
//It doesnt return errors, if a residue is out of range, no atom will
//be returned for it. Atoms are also required to be part of one of the chains
//specified in chains.
func Molecules2Atoms(mol Atomer, residues []int, chains []string) []int {
	return Select(mol, func(at *Atom) bool {
		return isInInt(residues, at.MolID) && isInString(chains, at.Chain)
	})
}

//CheckIndexes returns an error wrapping ErrOutOfRange if any of the given indexes
//is not a valid atom index for top.
func CheckIndexes(top Atomer, indexes ...int) error {
	for _, v := range indexes {
		if v < 0 || v >= top.Len() {
			return NewError(ErrOutOfRange, "CheckIndexes", "atom index %d out of range, topology has %d atoms", v, top.Len())
		}
	}
	return nil
}

//isIn is a helper for the RamaList function,
//returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	if container == nil {
		return false
	}
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

//Same as the previous, but with strings.
func isInString(container []string, test string) bool {
	if container == nil {
		return false
	}
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
