/*
 * feat.go, part of chemfeat.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package feat turns the frames of a trajectory into feature vectors. A Featurizer
//is built from a topology and a list of descriptors (coordinates, distances, angles,
//dihedrals...) added one at a time, each checked against the topology when it is added.
//Once a frame has been transformed, the descriptor list can't change anymore.
package feat

import (
	"sync"
	"sync/atomic"

	chem "github.com/rmera/chemfeat"
	v3 "github.com/rmera/chemfeat/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

//Descriptor is one block of columns of a feature vector.
type Descriptor interface {
	//Dimension returns the number of columns the descriptor produces.
	Dimension() int
	//Describe returns one label per column.
	Describe(top chem.Atomer) []string
	//Compute puts the values for the frame coords in dst, which has length Dimension().
	Compute(coords *v3.Matrix, dst []float64)
}

//Featurizer transforms frames into feature vectors. The Add* methods can be called
//until the Featurizer is frozen, either explicitly, with Freeze, or by the first
//transformation. A frozen Featurizer can be used from several goroutines at once.
type Featurizer struct {
	top    chem.Atomer
	mu     sync.Mutex
	desc   []Descriptor
	dim    int
	frozen atomic.Bool
}

//New returns a Featurizer for systems with the topology top. The topology is never modified.
func New(top chem.Atomer) (*Featurizer, error) {
	if top == nil || top.Len() == 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "feat.New", "empty topology")
	}
	return &Featurizer{top: top}, nil
}

//Topology returns the topology of the Featurizer
func (F *Featurizer) Topology() chem.Atomer {
	return F.top
}

//NAtoms returns the number of atoms a frame must have to be transformed.
func (F *Featurizer) NAtoms() int {
	return F.top.Len()
}

//Add adds the descriptor d. It fails, with an error wrapping chem.ErrConfiguration,
//if the Featurizer is frozen.
func (F *Featurizer) Add(d Descriptor) error {
	F.mu.Lock()
	defer F.mu.Unlock()
	if F.frozen.Load() {
		return chem.NewError(chem.ErrConfiguration, "Featurizer.Add", "descriptors can't be added to a frozen featurizer")
	}
	if d == nil || d.Dimension() < 1 {
		return chem.NewError(chem.ErrConfiguration, "Featurizer.Add", "empty descriptor")
	}
	F.desc = append(F.desc, d)
	return nil
}

//effective returns the descriptors in use. With none declared, that is
//the Cartesian coordinates of all atoms.
func (F *Featurizer) effective() []Descriptor {
	if len(F.desc) > 0 {
		return F.desc
	}
	all := make([]int, F.top.Len())
	for i := range all {
		all[i] = i
	}
	return []Descriptor{&selection{idx: all}}
}

//Freeze fixes the descriptor list. It is called automatically by the first transformation.
//Calling it more than once is harmless.
func (F *Featurizer) Freeze() {
	F.mu.Lock()
	defer F.mu.Unlock()
	if F.frozen.Load() {
		return
	}
	F.desc = F.effective()
	F.dim = 0
	for _, d := range F.desc {
		F.dim += d.Dimension()
	}
	F.frozen.Store(true)
	zap.L().Debug("Featurizer frozen", zap.Int("descriptors", len(F.desc)), zap.Int("dimension", F.dim))
}

//Frozen returns true if no more descriptors can be added.
func (F *Featurizer) Frozen() bool {
	return F.frozen.Load()
}

//Dimension returns the width of the feature vectors, the sum of the widths of
//the descriptors. Without descriptors, it is 3 times the number of atoms.
func (F *Featurizer) Dimension() int {
	if F.frozen.Load() {
		return F.dim
	}
	F.mu.Lock()
	defer F.mu.Unlock()
	dim := 0
	for _, d := range F.effective() {
		dim += d.Dimension()
	}
	return dim
}

//Describe returns the labels of the columns of the feature vectors, in order.
func (F *Featurizer) Describe() []string {
	F.mu.Lock()
	defer F.mu.Unlock()
	ret := make([]string, 0, F.dim)
	for _, d := range F.effective() {
		ret = append(ret, d.Describe(F.top)...)
	}
	return ret
}

//Transform returns the feature vector for the frame coords. If dst has the length of the vector
//it is used to store the result, otherwise a new slice is allocated.
//Transform freezes the Featurizer.
func (F *Featurizer) Transform(coords *v3.Matrix, dst []float64) ([]float64, error) {
	if !F.frozen.Load() {
		F.Freeze()
	}
	if coords == nil {
		return nil, chem.NewError(chem.ErrDataMismatch, "Featurizer.Transform", chem.ErrNilData)
	}
	if coords.NVecs() != F.top.Len() {
		return nil, chem.NewError(chem.ErrDataMismatch, "Featurizer.Transform", "frame has %d atoms, topology has %d", coords.NVecs(), F.top.Len())
	}
	if len(dst) != F.dim {
		dst = make([]float64, F.dim)
	}
	start := 0
	for _, d := range F.desc {
		w := d.Dimension()
		d.Compute(coords, dst[start:start+w])
		start += w
	}
	return dst, nil
}

//TransformMatrix returns a matrix with the feature vector of each of the given
//frames as a row.
func (F *Featurizer) TransformMatrix(frames []*v3.Matrix) (*mat.Dense, error) {
	if len(frames) == 0 {
		return nil, chem.NewError(chem.ErrDataMismatch, "Featurizer.TransformMatrix", "no frames given")
	}
	ret := mat.NewDense(len(frames), F.Dimension(), nil)
	for i, f := range frames {
		if _, err := F.Transform(f, ret.RawRowView(i)); err != nil {
			return nil, chem.ErrDecorate(err, "Featurizer.TransformMatrix")
		}
	}
	return ret, nil
}
