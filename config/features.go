/*
 * features.go, part of chemfeat.
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

package config

import (
	"fmt"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/feat"
	v3 "github.com/rmera/chemfeat/v3"
)

func (f Feature) validate() error {
	bad := func(format string, a ...any) error {
		return chem.NewError(chem.ErrConfiguration, "config.Feature", "%s: "+format, append([]any{f.Kind}, a...)...)
	}
	tuples := func(t [][]int, n int) error {
		if len(t) == 0 {
			return bad("no atom tuples given")
		}
		for i, v := range t {
			if len(v) != n {
				return bad("tuple %d has %d atoms, %d expected", i, len(v), n)
			}
		}
		return nil
	}
	switch f.Kind {
	case Cartesian, Distances, InverseDistances, BackboneTorsions, MinRMSD, Aligned:
		return nil
	case Contacts:
		if f.Threshold <= 0 {
			return bad("threshold must be positive, got %g", f.Threshold)
		}
		return nil
	case DistancePairs:
		return tuples(f.Pairs, 2)
	case Angles:
		return tuples(f.Triplets, 3)
	case Dihedrals:
		return tuples(f.Quads, 4)
	case "":
		return chem.NewError(chem.ErrConfiguration, "config.Feature", "feature without kind")
	default:
		return bad("unknown feature kind")
	}
}

//Resolve returns the indexes of the atoms in top selected by S.
func (S Selection) Resolve(top chem.Atomer) []int {
	if len(S.Indexes) > 0 {
		return append([]int(nil), S.Indexes...)
	}
	var backbone map[string]bool
	if S.Backbone {
		backbone = map[string]bool{"N": true, "CA": true, "C": true, "O": true}
	}
	return chem.Select(top, func(a *chem.Atom) bool {
		switch {
		case len(S.Names) > 0 && !contains(S.Names, a.Name):
			return false
		case len(S.Residues) > 0 && !contains(S.Residues, a.MolID):
			return false
		case len(S.Chains) > 0 && !contains(S.Chains, a.Chain):
			return false
		case S.Heavy && a.Symbol == "H":
			return false
		case S.Backbone && !backbone[a.Name]:
			return false
		}
		return true
	})
}

func contains[T comparable](s []T, v T) bool {
	for _, w := range s {
		if w == v {
			return true
		}
	}
	return false
}

func pairs(t [][]int) [][2]int {
	ret := make([][2]int, len(t))
	for i, v := range t {
		copy(ret[i][:], v)
	}
	return ret
}

func triplets(t [][]int) [][3]int {
	ret := make([][3]int, len(t))
	for i, v := range t {
		copy(ret[i][:], v)
	}
	return ret
}

func quads(t [][]int) [][4]int {
	ret := make([][4]int, len(t))
	for i, v := range t {
		copy(ret[i][:], v)
	}
	return ret
}

//add declares the feature in F.
func (f Feature) add(F *feat.Featurizer) error {
	if err := f.validate(); err != nil {
		return err
	}
	top := F.Topology()
	switch f.Kind {
	case Cartesian:
		return F.AddSelection(f.Select.Resolve(top))
	case Distances:
		return F.AddDistances(f.Select.Resolve(top))
	case InverseDistances:
		return F.AddInverseDistances(f.Select.Resolve(top))
	case Contacts:
		return F.AddContacts(f.Select.Resolve(top), f.Threshold)
	case DistancePairs:
		return F.AddDistancePairs(pairs(f.Pairs))
	case Angles:
		return F.AddAngles(triplets(f.Triplets), f.Degrees, f.CosSin)
	case Dihedrals:
		return F.AddDihedrals(quads(f.Quads), f.Degrees, f.CosSin)
	case MinRMSD:
		ref, err := f.reference(top)
		if err != nil {
			return err
		}
		return F.AddMinRMSD(ref, f.Select.Resolve(top))
	case Aligned:
		ref, err := f.reference(top)
		if err != nil {
			return err
		}
		return F.AddAlignedSelection(ref, f.Fit.Resolve(top), f.Select.Resolve(top))
	default: //BackboneTorsions
		return F.AddBackboneTorsions(f.Chains, f.Degrees, f.CosSin)
	}
}

//reference returns the reference structure for the superposition-based features: the
//first model of the Reference file, or of the topology itself if it carries coordinates.
func (f Feature) reference(top chem.Atomer) (*v3.Matrix, error) {
	if f.Reference != "" {
		mol, err := chem.PDBFileRead(f.Reference)
		if err != nil {
			return nil, err
		}
		return mol.Coords[0], nil
	}
	if mol, ok := top.(*chem.Molecule); ok && len(mol.Coords) > 0 {
		return mol.Coords[0], nil
	}
	return nil, chem.NewError(chem.ErrConfiguration, "config.Feature", "%s: no reference structure given, and the topology has no coordinates", f.Kind)
}

//Featurizer returns a Featurizer for top with the features in c declared, in order.
//Errors in the declarations (bad selections, indexes out of range) are reported here.
func (c *Config) Featurizer(top chem.Atomer) (*feat.Featurizer, error) {
	F, err := feat.New(top)
	if err != nil {
		return nil, err
	}
	for i, f := range c.Features {
		if err := f.add(F); err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, f.Kind, err)
		}
	}
	return F, nil
}
