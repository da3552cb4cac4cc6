/*
 * config_test.go, part of chemfeat.
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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/internal/toy"
	v3 "github.com/rmera/chemfeat/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const example = `
topology: top.pdb
trajectories:
  - run1.dcd
  - /data/run2.stz
stride: 2
features:
  - kind: distances
    select:
      names: [CA]
  - kind: backbone_torsions
    cossin: true
  - kind: dihedrals
    quads: [[0, 1, 3, 5]]
    degrees: true
vamp:
  lags: [1, 5, 10]
  dim: 3
plot:
  bins: 30
`

func TestLoad(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "run.yaml")
	require.NoError(Te, os.WriteFile(name, []byte(example), 0644))
	cfg, err := Load(name)
	require.NoError(Te, err)
	require.NoError(Te, cfg.Validate())
	assert.Equal(Te, filepath.Join(dir, "top.pdb"), cfg.Topology)
	assert.Equal(Te, []string{filepath.Join(dir, "run1.dcd"), "/data/run2.stz"}, cfg.Trajectories)
	assert.Equal(Te, 2, cfg.Stride)
	//values not in the file keep their defaults.
	def := DefaultConfig()
	assert.Equal(Te, def.Chunk, cfg.Chunk)
	assert.Equal(Te, def.VAMP.Splits, cfg.VAMP.Splits)
	assert.Equal(Te, def.Plot.KT, cfg.Plot.KT)
	assert.Equal(Te, 30, cfg.Plot.Bins)
	assert.Equal(Te, []int{1, 5, 10}, cfg.Lags())
	require.Len(Te, cfg.Features, 3)
	assert.Equal(Te, []string{"CA"}, cfg.Features[0].Select.Names)
	assert.True(Te, cfg.Features[1].CosSin)
	assert.Equal(Te, [][]int{{0, 1, 3, 5}}, cfg.Features[2].Quads)

	//what is saved is loaded back.
	saved := filepath.Join(dir, "saved.yaml")
	require.NoError(Te, Save(saved, cfg))
	again, err := Load(saved)
	require.NoError(Te, err)
	if diff := cmp.Diff(cfg, again); diff != "" {
		Te.Errorf("configuration changed after saving (-saved +loaded):\n%s", diff)
	}
	assert.Len(Te, cfg.SourceOptions(), 3)
	assert.Len(Te, cfg.VAMPOptions(), 4)
}

func TestLoadErrors(Te *testing.T) {
	_, err := Load(filepath.Join(Te.TempDir(), "missing.yaml"))
	assert.True(Te, errors.Is(err, chem.ErrIO))
	_, err = Read(strings.NewReader("topology: a.pdb\nstrid: 2\n"))
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	_, err = Read(strings.NewReader("chunk: many\n"))
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	cfg, err := Read(strings.NewReader(""))
	require.NoError(Te, err)
	assert.Equal(Te, DefaultConfig(), cfg)
}

func TestValidate(Te *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Topology = "top.pdb"
		c.Trajectories = []string{"a.dcd"}
		return c
	}
	require.NoError(Te, valid().Validate())
	for name, mod := range map[string]func(c *Config){
		"no topology":     func(c *Config) { c.Topology = "" },
		"no trajectories": func(c *Config) { c.Trajectories = nil },
		"chunk":           func(c *Config) { c.Chunk = 0 },
		"stride":          func(c *Config) { c.Stride = 0 },
		"skip":            func(c *Config) { c.Skip = -1 },
		"dim":             func(c *Config) { c.VAMP.Dim = 0 },
		"lag":             func(c *Config) { c.VAMP.Lag = 0 },
		"lags":            func(c *Config) { c.VAMP.Lags = []int{1, -2} },
		"fraction":        func(c *Config) { c.VAMP.TestFraction = 1 },
		"bins":            func(c *Config) { c.Plot.Bins = 0 },
		"kt":              func(c *Config) { c.Plot.KT = 0 },
		"kind":            func(c *Config) { c.Features = []Feature{{Kind: "rmsd"}} },
		"no kind":         func(c *Config) { c.Features = []Feature{{}} },
		"threshold":       func(c *Config) { c.Features = []Feature{{Kind: Contacts}} },
		"quads":           func(c *Config) { c.Features = []Feature{{Kind: Dihedrals, Quads: [][]int{{1, 2, 3}}}} },
		"no pairs":        func(c *Config) { c.Features = []Feature{{Kind: DistancePairs}} },
	} {
		c := valid()
		mod(c)
		assert.True(Te, errors.Is(c.Validate(), chem.ErrConfiguration), name)
	}
}

func TestSelection(Te *testing.T) {
	top, _ := toy.Peptide(3)
	assert.Equal(Te, []int{1, 6, 11}, Selection{Names: []string{"CA"}}.Resolve(top))
	assert.Equal(Te, []int{5, 6, 8, 9}, Selection{Residues: []int{2}, Backbone: true}.Resolve(top))
	assert.Equal(Te, []int{7, 2}, Selection{Indexes: []int{7, 2}, Names: []string{"CA"}}.Resolve(top))
	assert.Len(Te, Selection{}.Resolve(top), 15)
	assert.Empty(Te, Selection{Chains: []string{"B"}}.Resolve(top))
}

func TestFeaturizer(Te *testing.T) {
	top, ref := toy.Peptide(4)
	cfg, err := Read(strings.NewReader(example))
	require.NoError(Te, err)
	F, err := cfg.Featurizer(top)
	require.NoError(Te, err)
	//6 CA distances, cos and sin of 2 phi and 2 psi, 1 dihedral.
	assert.Equal(Te, 6+8+1, F.Dimension())
	assert.Len(Te, F.Describe(), 15)
	v, err := F.Transform(ref, nil)
	require.NoError(Te, err)
	assert.Len(Te, v, 15)

	cfg = DefaultConfig()
	F, err = cfg.Featurizer(top)
	require.NoError(Te, err)
	assert.Equal(Te, 3*20, F.Dimension())

	for name, f := range map[string]Feature{
		"out of range":    {Kind: DistancePairs, Pairs: [][]int{{0, 20}}},
		"empty selection": {Kind: Cartesian, Select: Selection{Names: []string{"ZN"}}},
		"one atom":        {Kind: Distances, Select: Selection{Indexes: []int{3}}},
		"bad kind":        {Kind: "rmsd"},
		"no reference":    {Kind: MinRMSD},
	} {
		cfg.Features = []Feature{f}
		_, err := cfg.Featurizer(top)
		assert.True(Te, errors.Is(err, chem.ErrConfiguration), "%s: %v", name, err)
	}
}

func TestSuperpositionFeatures(Te *testing.T) {
	top, ref := toy.Peptide(4)
	mol, err := chem.NewMolecule([]*v3.Matrix{ref}, top, nil)
	require.NoError(Te, err)
	cfg := DefaultConfig()
	cfg.Features = []Feature{
		{Kind: MinRMSD, Select: Selection{Backbone: true}},
		{Kind: Aligned, Fit: Selection{Backbone: true}, Select: Selection{Names: []string{"CB"}}},
	}
	//the topology carries the reference.
	F, err := cfg.Featurizer(mol)
	require.NoError(Te, err)
	assert.Equal(Te, 1+3*4, F.Dimension())
	v, err := F.Transform(ref, nil)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.0, v[0], 1e-8)

	//or a separate file.
	name := filepath.Join(Te.TempDir(), "ref.pdb")
	require.NoError(Te, chem.PDBFileWrite(name, ref, top, nil))
	cfg.Features[0].Reference = name
	cfg.Features[1].Reference = name
	F, err = cfg.Featurizer(top)
	require.NoError(Te, err)
	assert.Equal(Te, 13, F.Dimension())

	cfg.Features[0].Reference = name + ".missing"
	_, err = cfg.Featurizer(top)
	assert.True(Te, errors.Is(err, chem.ErrIO), "%v", err)
}
