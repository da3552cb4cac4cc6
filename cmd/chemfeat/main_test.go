/*
 * main_test.go, part of chemfeat.
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

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/histo"
	"github.com/rmera/chemfeat/internal/toy"
	"github.com/rmera/chemfeat/store"
	"github.com/rmera/chemfeat/traj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const configTemplate = `
topology: top.pdb
trajectories:
%s
features:
  - kind: distances
    select:
      names: [CA]
  - kind: backbone_torsions
    cossin: true
vamp:
  lag: 1
  dim: 2
  splits: 3
plot:
  bins: 10
  out: %s
`

//workdir writes a topology, one trajectory per length given and a configuration file
//into a temporary directory, and returns the path of the configuration file.
func workdir(Te *testing.T, lengths ...int) string {
	top, ref := toy.Peptide(3)
	dir := Te.TempDir()
	require.NoError(Te, chem.PDBFileWrite(filepath.Join(dir, "top.pdb"), ref, top, nil))
	var trajs strings.Builder
	exts := []string{".dcd", ".stf"}
	for i, n := range lengths {
		name := fmt.Sprintf("run%d%s", i, exts[i%2])
		w, err := traj.Create(filepath.Join(dir, name), ref.NVecs())
		require.NoError(Te, err)
		for _, f := range toy.Frames(ref, n, 0.1, 1.0, 0.1, int64(i+7)) {
			require.NoError(Te, w.WNext(f))
		}
		w.Close()
		fmt.Fprintf(&trajs, "  - %s\n", name)
	}
	cfg := filepath.Join(dir, "chemfeat.yaml")
	content := fmt.Sprintf(configTemplate, trajs.String(), filepath.Join(dir, "plots"))
	require.NoError(Te, os.WriteFile(cfg, []byte(content), 0644))
	return cfg
}

//run executes the chemfeat command with the given arguments and returns its output.
func run(Te *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	err := execute(args, &out, &out)
	return out.String(), err
}

func TestInfo(Te *testing.T) {
	cfg := workdir(Te, 30, 20)
	out, err := run(Te, "info", "-c", cfg)
	require.NoError(Te, err)
	assert.Contains(Te, out, "15 atoms")
	assert.Contains(Te, out, "run0.dcd")
	assert.Contains(Te, out, "run1.stf")
	assert.Regexp(Te, `total\s+50`, out)

	out, err = run(Te, "info", "-c", cfg, "--stride", "2", "--skip", "10")
	require.NoError(Te, err)
	assert.Regexp(Te, `total\s+15`, out)
}

func TestFeaturize(Te *testing.T) {
	cfg := workdir(Te, 12, 8)
	name := filepath.Join(filepath.Dir(cfg), "features.csv")
	_, err := run(Te, "featurize", "-c", cfg, "-o", name)
	require.NoError(Te, err)
	f, err := os.Open(name)
	require.NoError(Te, err)
	defer f.Close()
	S, err := store.ReadCSV(f)
	require.NoError(Te, err)
	assert.Equal(Te, []int{12, 8}, S.Frames())
	//3 CA distances plus cos and sin of 1 phi and 1 psi.
	assert.Equal(Te, 7, S.Dim())

	//chunks smaller than the trajectories give the same output.
	whole, err := os.ReadFile(name)
	require.NoError(Te, err)
	f2, err := os.OpenFile(cfg, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(Te, err)
	_, err = f2.WriteString("chunk: 5\n")
	require.NoError(Te, err)
	require.NoError(Te, f2.Close())
	chunked, err := run(Te, "featurize", "-c", cfg)
	require.NoError(Te, err)
	assert.Equal(Te, string(whole), chunked)

	out, err := run(Te, "featurize", "-c", cfg, "--stride", "4")
	require.NoError(Te, err)
	S, err = store.ReadCSV(strings.NewReader(out))
	require.NoError(Te, err)
	assert.Equal(Te, []int{3, 2}, S.Frames())
}

func TestScore(Te *testing.T) {
	cfg := workdir(Te, 200, 200, 200, 200)
	out, err := run(Te, "score", "-c", cfg, "--lag", "1,2,4", "--dim", "1", "--plot", "score.png")
	require.NoError(Te, err)
	assert.Contains(Te, out, "VAMP-2")
	for _, lag := range []string{"1", "2", "4"} {
		assert.Regexp(Te, "(?m)^"+lag+`\s+\d`, out)
	}
	assert.FileExists(Te, filepath.Join(filepath.Dir(cfg), "plots", "score.png"))

	//with a single trajectory there is nothing to cross validate with.
	cfg = workdir(Te, 200)
	out, err = run(Te, "score", "-c", cfg)
	require.NoError(Te, err)
	assert.Regexp(Te, `(?m)^1\s+\d`, out)

	_, err = run(Te, "score", "-c", cfg, "--dim=-1")
	assert.True(Te, errors.Is(err, chem.ErrConfiguration), "%v", err)
}

func TestACF(Te *testing.T) {
	cfg := workdir(Te, 100, 100)
	out, err := run(Te, "acf", "-c", cfg, "--col", "0", "--maxlag", "10")
	require.NoError(Te, err)
	assert.Contains(Te, out, "Integrated correlation time")

	_, err = run(Te, "acf", "-c", cfg, "--col", "70")
	assert.True(Te, errors.Is(err, chem.ErrOutOfRange), "%v", err)
}

func TestPlots(Te *testing.T) {
	cfg := workdir(Te, 60, 60)
	plots := filepath.Join(filepath.Dir(cfg), "plots")
	_, err := run(Te, "histo", "-c", cfg)
	require.NoError(Te, err)
	assert.FileExists(Te, filepath.Join(plots, "histograms.png"))

	_, err = run(Te, "fes", "-c", cfg, "-x", "0", "-y", "1", "-o", "fes.svg")
	require.NoError(Te, err)
	assert.FileExists(Te, filepath.Join(plots, "fes.svg"))

	_, err = run(Te, "fes", "-c", cfg, "--density", "-o", "density.png")
	require.NoError(Te, err)
	assert.FileExists(Te, filepath.Join(plots, "density.png"))

	_, err = run(Te, "fes", "-c", cfg, "-y", "30")
	assert.True(Te, errors.Is(err, chem.ErrOutOfRange), "%v", err)

	out, err := run(Te, "histo", "-c", cfg, "-o", "h.svg", "--json", "histograms.json")
	require.NoError(Te, err)
	assert.Contains(Te, out, "histograms.json")
	assert.FileExists(Te, filepath.Join(plots, "h.svg"))
	b, err := os.ReadFile(filepath.Join(plots, "histograms.json"))
	require.NoError(Te, err)
	M := new(histo.Matrix)
	require.NoError(Te, json.Unmarshal(b, M))
	r, c := M.Dims()
	assert.Equal(Te, 1, r)
	assert.Equal(Te, 7, c)
	for j := 0; j < c; j++ {
		D := M.View(0, j)
		assert.True(Te, D.Normalized())
		assert.Equal(Te, 120, D.Total())
		assert.InDelta(Te, 1, D.Sum(), 1e-9)
	}
}

func TestConverge(Te *testing.T) {
	cfg := workdir(Te, 60, 40)
	out, err := run(Te, "converge", "-c", cfg)
	require.NoError(Te, err)
	assert.Regexp(Te, `trajectory\s+mean\s+max\s+feature`, out)
	assert.Regexp(Te, `(?m)^run0\.dcd\s+0\.\d{3}\s+[01]\.\d{3}\s+\S`, out)
	assert.Regexp(Te, `(?m)^run1\.stf\s+0\.\d{3}\s+[01]\.\d{3}\s+\S`, out)

	//a single trajectory has the same distributions as the whole set.
	cfg = workdir(Te, 30)
	out, err = run(Te, "converge", "-c", cfg)
	require.NoError(Te, err)
	assert.Regexp(Te, `(?m)^run0\.dcd\s+0\.000\s+0\.000`, out)
}

func TestRama(Te *testing.T) {
	cfg := workdir(Te, 30, 20)
	plots := filepath.Join(filepath.Dir(cfg), "plots")
	out, err := run(Te, "rama", "-c", cfg)
	require.NoError(Te, err)
	assert.Contains(Te, out, "1 residues in 50 frames")
	assert.FileExists(Te, filepath.Join(plots, "rama.png"))

	out, err = run(Te, "rama", "-c", cfg, "--stride", "2", "--skip", "10", "-o", "rama.svg")
	require.NoError(Te, err)
	assert.Contains(Te, out, "1 residues in 15 frames")
	assert.FileExists(Te, filepath.Join(plots, "rama.svg"))

	_, err = run(Te, "rama", "-c", cfg, "--chains", "B")
	assert.True(Te, errors.Is(err, chem.ErrConfiguration), "%v", err)
}

func TestBadConfig(Te *testing.T) {
	_, err := run(Te, "info", "-c", filepath.Join(Te.TempDir(), "nothere.yaml"))
	assert.True(Te, errors.Is(err, chem.ErrIO), "%v", err)

	cfg := workdir(Te, 5)
	_, err = run(Te, "info", "-c", cfg, "--stride", "0")
	assert.True(Te, errors.Is(err, chem.ErrConfiguration), "%v", err)
}

//The global logger replaced for a command is restored even when the command fails.
func TestLoggerRestored(Te *testing.T) {
	require.False(Te, zap.L().Core().Enabled(zapcore.ErrorLevel))
	cfg := workdir(Te, 40, 40)
	_, err := run(Te, "score", "-c", cfg, "--lag", "2", "--dim=-1")
	require.Error(Te, err)
	assert.False(Te, zap.L().Core().Enabled(zapcore.ErrorLevel))

	_, err = run(Te, "info", "-c", cfg, "--stride", "0")
	require.Error(Te, err)
	assert.False(Te, zap.L().Core().Enabled(zapcore.ErrorLevel))

	_, err = run(Te, "info", "-c", cfg)
	require.NoError(Te, err)
	assert.False(Te, zap.L().Core().Enabled(zapcore.ErrorLevel))
}
