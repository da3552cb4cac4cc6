/*
 * descriptors.go, part of chemfeat.
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

package feat

import (
	"fmt"
	"math"
	"strings"

	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
)

//atomLabel returns a short human-readable name for the atom i of top, e.g. A/ALA2:CA
func atomLabel(top chem.Atomer, i int) string {
	at := top.Atom(i)
	l := fmt.Sprintf("%s%d:%s", at.Molname, at.MolID, at.Name)
	if c := strings.TrimSpace(at.Chain); c != "" {
		l = c + "/" + l
	}
	return l
}

func tupleLabel(top chem.Atomer, prefix string, idx ...int) string {
	s := make([]string, len(idx))
	for i, v := range idx {
		s[i] = atomLabel(top, v)
	}
	return prefix + "(" + strings.Join(s, ",") + ")"
}

//checkTuples verifies that all the indexes are in the topology, and that
//no atom appears twice in a tuple.
func (F *Featurizer) checkTuples(caller string, tuples [][]int) error {
	if len(tuples) == 0 {
		return chem.NewError(chem.ErrConfiguration, caller, "no atoms given")
	}
	for _, t := range tuples {
		if err := chem.CheckIndexes(F.top, t...); err != nil {
			return chem.ErrDecorate(err, caller)
		}
		for i := range t {
			for j := i + 1; j < len(t); j++ {
				if t[i] == t[j] {
					return chem.NewError(chem.ErrConfiguration, caller, "atom %d repeated in %v", t[i], t)
				}
			}
		}
	}
	return nil
}

//selection: Cartesian coordinates of some atoms.
type selection struct {
	idx []int
}

func (S *selection) Dimension() int { return 3 * len(S.idx) }

func (S *selection) Describe(top chem.Atomer) []string {
	ret := make([]string, 0, S.Dimension())
	for _, i := range S.idx {
		l := atomLabel(top, i)
		ret = append(ret, l+" x", l+" y", l+" z")
	}
	return ret
}

func (S *selection) Compute(coords *v3.Matrix, dst []float64) {
	for j, i := range S.idx {
		c := coords.Vec3(i)
		copy(dst[3*j:3*j+3], c[:])
	}
}

//AddSelection adds the x, y, z coordinates of the atoms with the indexes idx.
//Width: 3*len(idx)
func (F *Featurizer) AddSelection(idx []int) error {
	if len(idx) == 0 {
		return chem.NewError(chem.ErrConfiguration, "AddSelection", "empty selection")
	}
	if err := chem.CheckIndexes(F.top, idx...); err != nil {
		return chem.ErrDecorate(err, "AddSelection")
	}
	return F.Add(&selection{idx: append([]int(nil), idx...)})
}

//distances between pairs of atoms, or their inverses.
type distances struct {
	pairs   [][2]int
	inverse bool
}

func (D *distances) Dimension() int { return len(D.pairs) }

func (D *distances) Describe(top chem.Atomer) []string {
	prefix := "d"
	if D.inverse {
		prefix = "1/d"
	}
	ret := make([]string, len(D.pairs))
	for i, p := range D.pairs {
		ret[i] = tupleLabel(top, prefix, p[0], p[1])
	}
	return ret
}

func (D *distances) Compute(coords *v3.Matrix, dst []float64) {
	for i, p := range D.pairs {
		d := chem.Distance3(coords.Vec3(p[0]), coords.Vec3(p[1]))
		if D.inverse {
			d = 1 / d
		}
		dst[i] = d
	}
}

//contacts: 1 if the distance is below the threshold, 0 otherwise.
type contacts struct {
	pairs     [][2]int
	threshold float64
}

func (C *contacts) Dimension() int { return len(C.pairs) }

func (C *contacts) Describe(top chem.Atomer) []string {
	ret := make([]string, len(C.pairs))
	for i, p := range C.pairs {
		ret[i] = tupleLabel(top, fmt.Sprintf("c%.1f", C.threshold), p[0], p[1])
	}
	return ret
}

func (C *contacts) Compute(coords *v3.Matrix, dst []float64) {
	for i, p := range C.pairs {
		dst[i] = 0
		if chem.Distance3(coords.Vec3(p[0]), coords.Vec3(p[1])) < C.threshold {
			dst[i] = 1
		}
	}
}

//allPairs returns all the (i,j) pairs, i<j, of the elements of idx.
func allPairs(idx []int) [][2]int {
	ret := make([][2]int, 0, len(idx)*(len(idx)-1)/2)
	for i := 0; i < len(idx); i++ {
		for j := i + 1; j < len(idx); j++ {
			ret = append(ret, [2]int{idx[i], idx[j]})
		}
	}
	return ret
}

func (F *Featurizer) pairsFromSelection(caller string, idx []int) ([][2]int, error) {
	if len(idx) < 2 {
		return nil, chem.NewError(chem.ErrConfiguration, caller, "at least 2 atoms are needed, got %d", len(idx))
	}
	if err := F.checkTuples(caller, [][]int{idx}); err != nil {
		return nil, err
	}
	return allPairs(idx), nil
}

func (F *Featurizer) checkPairs(caller string, pairs [][2]int) error {
	t := make([][]int, len(pairs))
	for i := range pairs {
		t[i] = pairs[i][:]
	}
	return F.checkTuples(caller, t)
}

//AddDistances adds all the pairwise distances among the atoms in idx, in the order
//(idx[0],idx[1]), (idx[0],idx[2])...(idx[1],idx[2])... Width: M(M-1)/2 for M atoms.
func (F *Featurizer) AddDistances(idx []int) error {
	pairs, err := F.pairsFromSelection("AddDistances", idx)
	if err != nil {
		return err
	}
	return F.Add(&distances{pairs: pairs})
}

//AddInverseDistances is like AddDistances, but adds the inverse of each distance.
func (F *Featurizer) AddInverseDistances(idx []int) error {
	pairs, err := F.pairsFromSelection("AddInverseDistances", idx)
	if err != nil {
		return err
	}
	return F.Add(&distances{pairs: pairs, inverse: true})
}

//AddDistancePairs adds the distance between the atoms of each of the given pairs.
func (F *Featurizer) AddDistancePairs(pairs [][2]int) error {
	if err := F.checkPairs("AddDistancePairs", pairs); err != nil {
		return err
	}
	return F.Add(&distances{pairs: append([][2]int(nil), pairs...)})
}

//AddContacts adds, for each pair of atoms in idx, 1 if they are closer than threshold
//(in A) and 0 otherwise.
func (F *Featurizer) AddContacts(idx []int, threshold float64) error {
	if threshold <= 0 || math.IsNaN(threshold) {
		return chem.NewError(chem.ErrConfiguration, "AddContacts", "invalid contact threshold %f", threshold)
	}
	pairs, err := F.pairsFromSelection("AddContacts", idx)
	if err != nil {
		return err
	}
	return F.Add(&contacts{pairs: pairs, threshold: threshold})
}

//angular is an angle or dihedral descriptor. With cossin, each angle
//gives 2 columns, its cosine and its sine.
type angular struct {
	tuples [][]int
	labels []string //optional, otherwise they are built from the atoms
	kind   string
	deg    bool
	cossin bool
	f      func(coords *v3.Matrix, t []int) float64
}

func (A *angular) Dimension() int {
	if A.cossin {
		return 2 * len(A.tuples)
	}
	return len(A.tuples)
}

func (A *angular) Describe(top chem.Atomer) []string {
	ret := make([]string, 0, A.Dimension())
	for i, t := range A.tuples {
		l := ""
		if A.labels != nil {
			l = A.labels[i]
		} else {
			l = tupleLabel(top, A.kind, t...)
		}
		if A.cossin {
			ret = append(ret, "cos "+l, "sin "+l)
		} else {
			ret = append(ret, l)
		}
	}
	return ret
}

func (A *angular) Compute(coords *v3.Matrix, dst []float64) {
	for i, t := range A.tuples {
		a := A.f(coords, t)
		switch {
		case A.cossin:
			dst[2*i] = math.Cos(a)
			dst[2*i+1] = math.Sin(a)
		case A.deg:
			dst[i] = chem.Rad2Deg(a)
		default:
			dst[i] = a
		}
	}
}

func angle(coords *v3.Matrix, t []int) float64 {
	return chem.Angle3(coords.Vec3(t[0]), coords.Vec3(t[1]), coords.Vec3(t[2]))
}

func dihedral(coords *v3.Matrix, t []int) float64 {
	return chem.Dihedral3(coords.Vec3(t[0]), coords.Vec3(t[1]), coords.Vec3(t[2]), coords.Vec3(t[3]))
}

//AddAngles adds the angle defined by each triplet of atoms, with the vertex in the second one.
//Angles are in radians unless deg is true. If cossin is true, the cosine and sine of each
//angle are added instead (and deg is ignored).
func (F *Featurizer) AddAngles(triplets [][3]int, deg, cossin bool) error {
	t := make([][]int, len(triplets))
	for i := range triplets {
		t[i] = append([]int(nil), triplets[i][:]...)
	}
	if err := F.checkTuples("AddAngles", t); err != nil {
		return err
	}
	return F.Add(&angular{tuples: t, kind: "angle", deg: deg, cossin: cossin, f: angle})
}

//AddDihedrals adds the dihedral angle defined by each quadruplet of atoms, in the (-pi, pi]
//range (or degrees, if deg is true). If cossin is true, the cosine and sine of each
//angle are added instead.
func (F *Featurizer) AddDihedrals(quads [][4]int, deg, cossin bool) error {
	t := make([][]int, len(quads))
	for i := range quads {
		t[i] = append([]int(nil), quads[i][:]...)
	}
	if err := F.checkTuples("AddDihedrals", t); err != nil {
		return err
	}
	return F.Add(&angular{tuples: t, kind: "dihedral", deg: deg, cossin: cossin, f: dihedral})
}

//AddBackboneTorsions adds the phi and psi dihedrals of every residue in the given
//chains (all chains if chains is empty) that has both.
func (F *Featurizer) AddBackboneTorsions(chains string, deg, cossin bool) error {
	sets, err := chem.RamaList(F.top, chains, nil)
	if err != nil {
		return chem.ErrDecorate(err, "AddBackboneTorsions")
	}
	if len(sets) == 0 {
		return chem.NewError(chem.ErrConfiguration, "AddBackboneTorsions", "no residues with phi and psi dihedrals found in chains '%s'", chains)
	}
	t := make([][]int, 0, 2*len(sets))
	labels := make([]string, 0, 2*len(sets))
	for _, s := range sets {
		phi, psi := s.Phi(), s.Psi()
		t = append(t, phi[:], psi[:])
		at := F.top.Atom(s.Ca)
		res := fmt.Sprintf("%s%d", s.Molname, s.MolID)
		if c := strings.TrimSpace(at.Chain); c != "" {
			res = c + "/" + res
		}
		labels = append(labels, "phi "+res, "psi "+res)
	}
	return F.Add(&angular{tuples: t, labels: labels, kind: "dihedral", deg: deg, cossin: cossin, f: dihedral})
}

//refCheck verifies that the reference has the same number of atoms as the topology.
func (F *Featurizer) refCheck(caller string, ref *v3.Matrix) error {
	if ref == nil {
		return chem.NewError(chem.ErrConfiguration, caller, "no reference structure given")
	}
	if ref.NVecs() != F.top.Len() {
		return chem.NewError(chem.ErrDataMismatch, caller, "reference has %d atoms, topology has %d", ref.NVecs(), F.top.Len())
	}
	return nil
}

//minRMSD: RMSD to a reference after the optimal superposition.
type minRMSD struct {
	ref *v3.Matrix
	idx []int
}

func (M *minRMSD) Dimension() int { return 1 }

func (M *minRMSD) Describe(top chem.Atomer) []string {
	return []string{fmt.Sprintf("minrmsd(%d atoms)", len(M.idx))}
}

func (M *minRMSD) Compute(coords *v3.Matrix, dst []float64) {
	//indexes and sizes were checked when the descriptor was added.
	dst[0], _ = chem.MinRMSD(coords, M.ref, M.idx)
}

//AddMinRMSD adds the RMSD between the atoms idx of each frame and those of ref,
//after superimposing them. ref must have one row per atom of the topology, and is copied.
func (F *Featurizer) AddMinRMSD(ref *v3.Matrix, idx []int) error {
	if err := F.refCheck("AddMinRMSD", ref); err != nil {
		return err
	}
	if len(idx) == 0 {
		return chem.NewError(chem.ErrConfiguration, "AddMinRMSD", "empty selection")
	}
	if err := chem.CheckIndexes(F.top, idx...); err != nil {
		return chem.ErrDecorate(err, "AddMinRMSD")
	}
	r := v3.Zeros(ref.NVecs())
	r.Copy(ref)
	return F.Add(&minRMSD{ref: r, idx: append([]int(nil), idx...)})
}

//aligned: Cartesian coordinates of some atoms after superimposing
//the frame on a reference.
type aligned struct {
	selection
	ref *v3.Matrix
	fit []int
}

func (A *aligned) Describe(top chem.Atomer) []string {
	ret := A.selection.Describe(top)
	for i := range ret {
		ret[i] = "aligned " + ret[i]
	}
	return ret
}

func (A *aligned) Compute(coords *v3.Matrix, dst []float64) {
	S, _ := chem.GetSuper(coords, A.ref, A.fit, A.fit)
	for j, i := range A.idx {
		c := S.Apply(coords.Vec3(i))
		copy(dst[3*j:3*j+3], c[:])
	}
}

//AddAlignedSelection adds the x, y, z coordinates of the atoms idx, after superimposing the
//atoms fit of each frame on those of ref. Width: 3*len(idx)
func (F *Featurizer) AddAlignedSelection(ref *v3.Matrix, fit, idx []int) error {
	if err := F.refCheck("AddAlignedSelection", ref); err != nil {
		return err
	}
	if len(idx) == 0 || len(fit) == 0 {
		return chem.NewError(chem.ErrConfiguration, "AddAlignedSelection", "empty selection")
	}
	if err := chem.CheckIndexes(F.top, append(append([]int(nil), fit...), idx...)...); err != nil {
		return chem.ErrDecorate(err, "AddAlignedSelection")
	}
	r := v3.Zeros(ref.NVecs())
	r.Copy(ref)
	return F.Add(&aligned{selection: selection{idx: append([]int(nil), idx...)}, ref: r, fit: append([]int(nil), fit...)})
}

//custom is a user-defined descriptor
type custom struct {
	name  string
	width int
	fn    func(coords *v3.Matrix, dst []float64)
}

func (C *custom) Dimension() int { return C.width }

func (C *custom) Describe(top chem.Atomer) []string {
	ret := make([]string, C.width)
	for i := range ret {
		ret[i] = fmt.Sprintf("%s[%d]", C.name, i)
	}
	if C.width == 1 {
		ret[0] = C.name
	}
	return ret
}

func (C *custom) Compute(coords *v3.Matrix, dst []float64) { C.fn(coords, dst) }

//AddCustom adds width columns computed by fn, which gets the frame and a slice
//of length width to fill. fn must be safe for concurrent use if the Featurizer is.
func (F *Featurizer) AddCustom(name string, width int, fn func(coords *v3.Matrix, dst []float64)) error {
	if width < 1 || fn == nil {
		return chem.NewError(chem.ErrConfiguration, "AddCustom", "custom descriptor %s needs a function and a positive width", name)
	}
	return F.Add(&custom{name: name, width: width, fn: fn})
}
