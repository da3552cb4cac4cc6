/*
 * config.go, part of chemfeat.
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

//Package config reads and writes the YAML description of a featurization and scoring run:
//the input files, how they are read, the features to compute, and the parameters of the
//VAMP scoring and of the plots.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/source"
	"github.com/rmera/chemfeat/vamp"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLag  = 1
	DefaultDim  = 2
	DefaultBins = 50
	DefaultKT   = 2.494 //kJ/mol at 300 K
	DefaultOut  = "."
)

//Feature kinds
const (
	Cartesian        = "cartesian"
	Distances        = "distances"
	InverseDistances = "inverse_distances"
	DistancePairs    = "distance_pairs"
	Contacts         = "contacts"
	Angles           = "angles"
	Dihedrals        = "dihedrals"
	BackboneTorsions = "backbone_torsions"
	MinRMSD          = "minrmsd"
	Aligned          = "aligned_cartesian"
)

type Config struct {
	Topology     string    `yaml:"topology"`
	Trajectories []string  `yaml:"trajectories"`
	Chunk        int       `yaml:"chunk"`
	Stride       int       `yaml:"stride"`
	Skip         int       `yaml:"skip"`
	Workers      int       `yaml:"workers,omitempty"`
	Features     []Feature `yaml:"features"`
	VAMP         VAMP      `yaml:"vamp"`
	Plot         Plot      `yaml:"plot"`
}

//Selection selects atoms from a topology. All the given criteria must hold for an atom to be
//selected, except for Indexes which, if given, overrides the rest. An empty Selection selects
//all atoms.
type Selection struct {
	Names    []string `yaml:"names,omitempty"`
	Residues []int    `yaml:"residues,omitempty"`
	Chains   []string `yaml:"chains,omitempty"`
	Heavy    bool     `yaml:"heavy,omitempty"`
	Backbone bool     `yaml:"backbone,omitempty"`
	Indexes  []int    `yaml:"indexes,omitempty"`
}

type Feature struct {
	Kind      string    `yaml:"kind"`
	Select    Selection `yaml:"select,omitempty"`
	Pairs     [][]int   `yaml:"pairs,omitempty"`
	Triplets  [][]int   `yaml:"triplets,omitempty"`
	Quads     [][]int   `yaml:"quads,omitempty"`
	Chains    string    `yaml:"chains,omitempty"`
	Degrees   bool      `yaml:"degrees,omitempty"`
	CosSin    bool      `yaml:"cossin,omitempty"`
	Threshold float64   `yaml:"threshold,omitempty"`
	//Reference is a PDB file with the structure used by the minrmsd and aligned_cartesian
	//features. If not given, the topology file is used.
	Reference string    `yaml:"reference,omitempty"`
	Fit       Selection `yaml:"fit,omitempty"`
}

type VAMP struct {
	Lag          int     `yaml:"lag"`
	Lags         []int   `yaml:"lags,omitempty"`
	Dim          int     `yaml:"dim"`
	Splits       int     `yaml:"splits"`
	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`
	Epsilon      float64 `yaml:"epsilon"`
	Timestep     float64 `yaml:"timestep,omitempty"`
}

type Plot struct {
	Bins int     `yaml:"bins"`
	KT   float64 `yaml:"kt"`
	Out  string  `yaml:"out"`
}

func DefaultConfig() *Config {
	return &Config{
		Chunk:  source.DefaultChunk,
		Stride: 1,
		VAMP: VAMP{
			Lag:          DefaultLag,
			Dim:          DefaultDim,
			Splits:       vamp.DefaultSplits,
			TestFraction: vamp.DefaultTestFraction,
			Seed:         vamp.DefaultSeed,
			Epsilon:      vamp.DefaultEpsilon,
		},
		Plot: Plot{
			Bins: DefaultBins,
			KT:   DefaultKT,
			Out:  DefaultOut,
		},
	}
}

//Read decodes a configuration from r, on top of the defaults. Unknown keys are an error.
func Read(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, chem.NewError(chem.ErrConfiguration, "config.Read", "%s", err.Error())
	}
	return cfg, nil
}

//Load reads the configuration file in path. Relative file names in it are taken as relative
//to the directory of path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chem.NewError(chem.ErrIO, "config.Load", "%s", err.Error())
	}
	cfg, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, chem.ErrDecorate(err, "config.Load: "+path)
	}
	dir := filepath.Dir(path)
	cfg.Topology = resolve(dir, cfg.Topology)
	for i, t := range cfg.Trajectories {
		cfg.Trajectories[i] = resolve(dir, t)
	}
	for i, f := range cfg.Features {
		cfg.Features[i].Reference = resolve(dir, f.Reference)
	}
	return cfg, nil
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return chem.NewError(chem.ErrConfiguration, "config.Save", "%s", err.Error())
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return chem.NewError(chem.ErrIO, "config.Save", "%s", err.Error())
	}
	return nil
}

func invalid(format string, a ...any) error {
	return chem.NewError(chem.ErrConfiguration, "config.Validate", format, a...)
}

//Validate checks the values that can be checked without reading the input files.
func (c *Config) Validate() error {
	switch {
	case c.Topology == "":
		return invalid("no topology given")
	case len(c.Trajectories) == 0:
		return invalid("no trajectories given")
	case c.Chunk < 1:
		return invalid("chunk must be positive, got %d", c.Chunk)
	case c.Stride < 1:
		return invalid("stride must be positive, got %d", c.Stride)
	case c.Skip < 0:
		return invalid("skip can't be negative, got %d", c.Skip)
	case c.Workers < 0:
		return invalid("workers can't be negative, got %d", c.Workers)
	case c.VAMP.Dim < 1:
		return invalid("vamp.dim must be positive, got %d", c.VAMP.Dim)
	case c.VAMP.Splits < 1:
		return invalid("vamp.splits must be positive, got %d", c.VAMP.Splits)
	case c.VAMP.TestFraction <= 0 || c.VAMP.TestFraction >= 1:
		return invalid("vamp.test_fraction must be in (0,1), got %g", c.VAMP.TestFraction)
	case c.VAMP.Epsilon < 0:
		return invalid("vamp.epsilon can't be negative, got %g", c.VAMP.Epsilon)
	case c.VAMP.Timestep < 0:
		return invalid("vamp.timestep can't be negative, got %g", c.VAMP.Timestep)
	case c.Plot.Bins < 1:
		return invalid("plot.bins must be positive, got %d", c.Plot.Bins)
	case c.Plot.KT <= 0:
		return invalid("plot.kt must be positive, got %g", c.Plot.KT)
	}
	for _, l := range c.Lags() {
		if l < 1 {
			return invalid("lag times must be positive, got %d", l)
		}
	}
	for i, f := range c.Features {
		if err := f.validate(); err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
	}
	return nil
}

//Lags returns the lag times to be scored: vamp.lags if given, vamp.lag otherwise.
func (c *Config) Lags() []int {
	if len(c.VAMP.Lags) > 0 {
		return append([]int(nil), c.VAMP.Lags...)
	}
	return []int{c.VAMP.Lag}
}

//SourceOptions returns the options for reading the trajectories.
func (c *Config) SourceOptions() []source.Option {
	opts := []source.Option{source.Chunk(c.Chunk), source.Stride(c.Stride), source.Skip(c.Skip)}
	if c.Workers > 0 {
		opts = append(opts, source.Workers(c.Workers))
	}
	return opts
}

//VAMPOptions returns the options for fitting and cross validating VAMP models.
func (c *Config) VAMPOptions() []vamp.Option {
	return []vamp.Option{
		vamp.Epsilon(c.VAMP.Epsilon),
		vamp.Splits(c.VAMP.Splits),
		vamp.TestFraction(c.VAMP.TestFraction),
		vamp.Seed(c.VAMP.Seed),
	}
}
