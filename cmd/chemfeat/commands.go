/*
 * commands.go, part of chemfeat.
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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/chemplot"
	"github.com/rmera/chemfeat/chemstat"
	"github.com/rmera/chemfeat/histo"
	"github.com/rmera/chemfeat/source"
	"github.com/rmera/chemfeat/store"
	"github.com/rmera/chemfeat/traj"
	v3 "github.com/rmera/chemfeat/v3"
	"github.com/rmera/chemfeat/vamp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "print the atoms, features and frames of the configured inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			F, err := a.featurizer()
			if err != nil {
				return err
			}
			s, err := source.NewStream(F, a.cfg.Trajectories, a.cfg.SourceOptions()...)
			if err != nil {
				return err
			}
			defer s.Close()
			nframes, err := s.NFrames()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Topology: %s, %s atoms\n", a.cfg.Topology, humanize.Comma(int64(F.NAtoms())))
			fmt.Fprintf(out, "Features: %d\n", F.Dimension())
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "trajectory\tsize\tframes used")
			var total int
			for i, name := range a.cfg.Trajectories {
				size := "?"
				if info, err := os.Stat(name); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, size, humanize.Comma(int64(nframes[i])))
				total += nframes[i]
			}
			fmt.Fprintf(w, "total\t\t%s\n", humanize.Comma(int64(total)))
			return w.Flush()
		},
	}
}

func (a *app) featurizeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "featurize",
		Short: "compute the features of every frame and write them as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			F, err := a.featurizer()
			if err != nil {
				return err
			}
			s, err := source.NewStream(F, a.cfg.Trajectories, a.cfg.SourceOptions()...)
			if err != nil {
				return err
			}
			defer s.Close()
			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return chem.NewError(chem.ErrIO, "featurize", "%s", err.Error())
				}
				defer f.Close()
				out = f
			}
			w := bufio.NewWriter(out)
			W, err := store.NewCSVWriter(w, s.Labels())
			if err != nil {
				return err
			}
			var frames int
			for {
				c, err := s.Next()
				if chem.IsLastFrame(err) {
					break
				}
				if err != nil {
					return err
				}
				if err := W.WriteChunk(c); err != nil {
					return err
				}
				frames += c.Data.RawMatrix().Rows
			}
			if err := W.Flush(); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return chem.NewError(chem.ErrIO, "featurize", "%s", err.Error())
			}
			zap.L().Info("Features written", zap.String("output", output), zap.Int("frames", frames), zap.Int("features", len(s.Labels())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output CSV file (- for standard output)")
	return cmd
}

//load featurizes all the configured trajectories.
func (a *app) load(ctx context.Context) (*store.Store, error) {
	F, err := a.featurizer()
	if err != nil {
		return nil, err
	}
	return source.LoadContext(ctx, F, a.cfg.Trajectories, a.cfg.SourceOptions()...)
}

//outPath returns the path of the output file name, in the plot output directory.
func (a *app) outPath(name string) (string, error) {
	if err := os.MkdirAll(a.cfg.Plot.Out, 0755); err != nil {
		return "", chem.NewError(chem.ErrIO, "outPath", "%s", err.Error())
	}
	return filepath.Join(a.cfg.Plot.Out, name), nil
}

//writeHistoJSON writes the normalized histograms of all the features of S, as JSON, to name.
func writeHistoJSON(S *store.Store, nbins int, name string) error {
	M, err := histo.FeatureHistograms(S, nbins)
	if err != nil {
		return err
	}
	M.NormalizeAll()
	b, err := json.Marshal(M)
	if err != nil {
		return chem.NewError(chem.ErrIO, "writeHistoJSON", "%s", err.Error())
	}
	if err := os.WriteFile(name, b, 0644); err != nil {
		return chem.NewError(chem.ErrIO, "writeHistoJSON", "%s", err.Error())
	}
	return nil
}

func (a *app) histoCmd() *cobra.Command {
	var preview time.Duration
	var output, jsonOut string
	cmd := &cobra.Command{
		Use:   "histo",
		Short: "plot the histograms of all the features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			S, err := a.load(ctx)
			if err != nil {
				return err
			}
			if jsonOut != "" {
				name, err := a.outPath(jsonOut)
				if err != nil {
					return err
				}
				if err := writeHistoJSON(S, a.cfg.Plot.Bins, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Histogram data written to %s\n", name)
			}
			if preview > 0 {
				p, err := chemplot.NewFeatureHistograms(S, a.cfg.Plot.Bins, "Feature histograms")
				if err != nil {
					return err
				}
				P, err := chemplot.NewPreview(p, preview)
				if err != nil {
					return err
				}
				defer P.Close()
				fmt.Fprintf(cmd.OutOrStdout(), "Preview in %s for %s\n", P.Path(), preview)
				select {
				case <-P.Done():
				case <-ctx.Done():
				}
				return nil
			}
			name, err := a.outPath(output)
			if err != nil {
				return err
			}
			if err := chemplot.FeatureHistograms(S, a.cfg.Plot.Bins, "Feature histograms", name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Histograms of %d features written to %s\n", S.Dim(), name)
			return nil
		},
	}
	cmd.Flags().DurationVar(&preview, "preview", 0, "show the plot in a temporary file for this long instead of saving it")
	cmd.Flags().StringVarP(&output, "output", "o", "histograms.png", "output file, in the plot directory")
	cmd.Flags().StringVar(&jsonOut, "json", "", "also write the normalized histograms as JSON to this file, in the plot directory")
	return cmd
}

func (a *app) convergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "converge",
		Short: "compare the feature distributions of each trajectory with those of the whole set",
		Long: `converge prints, for each trajectory, the mean and the largest total variation distance
between the histogram of a feature in that trajectory and in all the trajectories together,
and the feature with the largest distance. Distances go from 0 (same distribution) to 1
(no overlap). Large values mean the trajectory samples a region the others don't.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			S, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			conv, err := histo.Convergence(S, a.cfg.Plot.Bins)
			if err != nil {
				return err
			}
			labels := S.Labels()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "trajectory\tmean\tmax\tfeature")
			for i, row := range conv {
				worst := floats.MaxIdx(row)
				fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%s\n", filepath.Base(a.cfg.Trajectories[i]), stat.Mean(row, nil), row[worst], labels[worst])
			}
			return tw.Flush()
		},
	}
}

func (a *app) ramaCmd() *cobra.Command {
	var chains, output string
	cmd := &cobra.Command{
		Use:   "rama",
		Short: "plot the backbone phi/psi dihedrals of all the frames in a Ramachandran plot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			top, err := chem.PDBFileRead(a.cfg.Topology)
			if err != nil {
				return err
			}
			sets, err := chem.RamaList(top, chains, nil)
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				return chem.NewError(chem.ErrConfiguration, "rama", "no residues with phi and psi dihedrals in chains '%s'", chains)
			}
			data := make([][][]float64, len(sets))
			var frames int
			for _, name := range a.cfg.Trajectories {
				n, err := ramaFrames(cmd.Context(), name, top.Len(), sets, a.cfg.Skip, a.cfg.Stride, data)
				if err != nil {
					return err
				}
				frames += n
			}
			name, err := a.outPath(output)
			if err != nil {
				return err
			}
			if err := chemplot.RamaPlotParts(data, nil, "Ramachandran plot", name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d residues in %s frames written to %s\n", len(sets), humanize.Comma(int64(frames)), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&chains, "chains", "", "chains to plot (all if empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "rama.png", "output file, in the plot directory")
	return cmd
}

//ramaFrames appends the phi/psi pairs of each residue in sets, for the kept frames of the
//trajectory name, to data. It returns the number of frames used.
func ramaFrames(ctx context.Context, name string, natoms int, sets []chem.RamaSet, skip, stride int, data [][][]float64) (int, error) {
	r, err := traj.Open(name)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	if r.Len() != natoms {
		return 0, chem.NewError(chem.ErrDataMismatch, "ramaFrames", "%s has %d atoms, the topology has %d", name, r.Len(), natoms)
	}
	coords := v3.Zeros(natoms)
	var used int
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return used, err
		}
		keep := i >= skip && (i-skip)%stride == 0
		var out *v3.Matrix
		if keep {
			out = coords
		}
		if err := r.Next(out); err != nil {
			if chem.IsLastFrame(err) {
				return used, nil
			}
			return used, chem.ErrDecorate(err, "ramaFrames")
		}
		if !keep {
			continue
		}
		angles, err := chem.RamaCalc(coords, sets)
		if err != nil {
			return used, chem.ErrDecorate(err, "ramaFrames")
		}
		for k, v := range angles {
			data[k] = append(data[k], v)
		}
		used++
	}
}

func (a *app) fesCmd() *cobra.Command {
	var x, y int
	var output string
	var density bool
	cmd := &cobra.Command{
		Use:   "fes",
		Short: "plot the free energy surface (or the density) of two features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			S, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			xs, err := S.Column(x)
			if err != nil {
				return err
			}
			ys, err := S.Column(y)
			if err != nil {
				return err
			}
			labels := S.Labels()
			name, err := a.outPath(output)
			if err != nil {
				return err
			}
			if density {
				err = chemplot.Density2D(xs, ys, a.cfg.Plot.Bins, "Density", labels[x], labels[y], name)
			} else {
				err = chemplot.FreeEnergySurface(xs, ys, a.cfg.Plot.Bins, a.cfg.Plot.KT, "Free energy", labels[x], labels[y], name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s written to %s\n", labels[x], labels[y], name)
			return nil
		},
	}
	cmd.Flags().IntVarP(&x, "x", "x", 0, "feature column for the x axis")
	cmd.Flags().IntVarP(&y, "y", "y", 1, "feature column for the y axis")
	cmd.Flags().BoolVar(&density, "density", false, "plot the probability density instead of the free energy")
	cmd.Flags().StringVarP(&output, "output", "o", "fes.png", "output file, in the plot directory")
	return cmd
}

//selfScores fits a model at each lag on all the data, and scores it on the same data.
//It is used when there are not enough trajectories for cross validation.
func selfScores(data []*mat.Dense, lags []int, dim int, opts []vamp.Option) ([]vamp.LagScore, error) {
	ret := make([]vamp.LagScore, 0, len(lags))
	for _, lag := range lags {
		M, err := vamp.Fit(data, lag, dim, opts...)
		if err != nil {
			return nil, err
		}
		s, err := M.Score(data, 2)
		if err != nil {
			return nil, err
		}
		ret = append(ret, vamp.LagScore{Lag: lag, Mean: s, Scores: []float64{s}})
	}
	return ret, nil
}

func (a *app) scoreCmd() *cobra.Command {
	var lags []int
	var dim int
	var plotname string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "cross validated VAMP-2 score of the features at one or more lag times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lag") {
				a.cfg.VAMP.Lags = lags
			}
			if cmd.Flags().Changed("dim") {
				a.cfg.VAMP.Dim = dim
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			S, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			var results []vamp.LagScore
			if S.Len() < 2 {
				zap.L().Warn("Only one trajectory, reporting training scores without cross validation")
				results, err = selfScores(S.Mats(), a.cfg.Lags(), a.cfg.VAMP.Dim, a.cfg.VAMPOptions())
			} else {
				results, err = vamp.ScanLags(S.Mats(), a.cfg.Lags(), a.cfg.VAMP.Dim, a.cfg.VAMPOptions()...)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "lag\tVAMP-2\tstd")
			means := make([]float64, len(results))
			stds := make([]float64, len(results))
			for i, r := range results {
				fmt.Fprintf(w, "%d\t%.4f\t%.4f\n", r.Lag, r.Mean, r.Std)
				means[i], stds[i] = r.Mean, r.Std
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(results) > 1 {
				fmt.Fprintln(out, asciigraph.Plot(means,
					asciigraph.Height(10),
					asciigraph.Width(60),
					asciigraph.Caption("VAMP-2 score vs lag index"),
				))
			}
			if plotname == "" {
				return nil
			}
			name, err := a.outPath(plotname)
			if err != nil {
				return err
			}
			return chemplot.ScoreVsLag(a.cfg.Lags(), means, stds, "VAMP-2 score", name)
		},
	}
	cmd.Flags().IntSliceVar(&lags, "lag", nil, "lag times, in frames (overrides the configuration)")
	cmd.Flags().IntVar(&dim, "dim", 0, "number of singular functions (overrides the configuration)")
	cmd.Flags().StringVar(&plotname, "plot", "", "also plot the scores to this file, in the plot directory")
	return cmd
}

func (a *app) acfCmd() *cobra.Command {
	var col, maxlag int
	cmd := &cobra.Command{
		Use:   "acf",
		Short: "autocorrelation function of a feature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			S, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			acf, err := chemstat.FeatureACF(S, col, maxlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, asciigraph.Plot(acf,
				asciigraph.Height(10),
				asciigraph.Width(60),
				asciigraph.Caption(fmt.Sprintf("autocorrelation of %s", S.Labels()[col])),
			))
			t := chemstat.CorrelationTime(acf)
			fmt.Fprintf(out, "Integrated correlation time: %.2f frames", t)
			if a.cfg.VAMP.Timestep > 0 {
				fmt.Fprintf(out, " (%.4g time units)", t*a.cfg.VAMP.Timestep*float64(a.cfg.Stride))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&col, "col", 0, "feature column")
	cmd.Flags().IntVar(&maxlag, "maxlag", 100, "maximum lag, in frames")
	return cmd
}
