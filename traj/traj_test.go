/*
 * traj_test.go, part of chemfeat.
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

package traj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/internal/toy"
	v3 "github.com/rmera/chemfeat/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFormat(Te *testing.T) {
	for name, f := range map[string]string{"a.dcd": DCD, "a.DCD.gz": DCD, "b.dcd.zst": DCD, "c.lzw": DCD, "d.stf": STF, "e.stz": STF, "f.pdb": PDB} {
		got, err := Format(name)
		require.NoError(Te, err)
		assert.Equal(Te, f, got, name)
	}
	_, err := Format("traj.xtc")
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	_, err = Open("traj.xtc")
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
	_, err = Create("traj.pdb", 3)
	assert.True(Te, errors.Is(err, chem.ErrConfiguration))
}

func TestConvertAndCount(Te *testing.T) {
	top, ref := toy.Peptide(2)
	frames := toy.Frames(ref, 7, 0.1, 1, 0.2, 2)
	dir := Te.TempDir()
	//a multi-model PDB as the source.
	var sb strings.Builder
	for i, f := range frames {
		sb.WriteString("MODEL " + strings.Repeat(" ", 7) + string(rune('1'+i)) + "\n")
		require.NoError(Te, chem.PDBWrite(&sb, f, top, nil))
		sb.WriteString("ENDMDL\n")
	}
	pdb := filepath.Join(dir, "src.pdb")
	require.NoError(Te, os.WriteFile(pdb, []byte(sb.String()), 0644))
	n, err := Count(pdb)
	require.NoError(Te, err)
	assert.Equal(Te, 7, n)

	for _, target := range []string{"out.dcd", "out.stf", "out.stz"} {
		src, err := Open(pdb)
		require.NoError(Te, err)
		w, err := Create(filepath.Join(dir, target), src.Len())
		require.NoError(Te, err)
		copied, err := Copy(w, src)
		require.NoError(Te, err)
		w.Close()
		src.Close()
		assert.Equal(Te, 7, copied)
		n, err := Count(filepath.Join(dir, target))
		require.NoError(Te, err)
		assert.Equal(Te, 7, n, target)
		r, err := Open(filepath.Join(dir, target))
		require.NoError(Te, err)
		last := v3.Zeros(r.Len())
		for i := 0; i < 7; i++ {
			require.NoError(Te, r.Next(last))
		}
		assert.InDelta(Te, frames[6].At(3, 2), last.At(3, 2), 0.01)
		assert.True(Te, chem.IsLastFrame(r.Next(nil)))
		r.Close()
		r.Close()
	}
}

func TestOpenMissing(Te *testing.T) {
	for _, name := range []string{"x.dcd", "x.stf", "x.pdb"} {
		_, err := Open(filepath.Join(Te.TempDir(), name))
		assert.True(Te, errors.Is(err, chem.ErrIO), name)
		_, err = Count(filepath.Join(Te.TempDir(), name))
		assert.True(Te, errors.Is(err, chem.ErrIO), name)
	}
}
