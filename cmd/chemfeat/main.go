/*
 * main.go, part of chemfeat.
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

//chemfeat featurizes molecular dynamics trajectories, plots the distributions of the features,
//and scores sets of features with the VAMP-2 score.
//
//All commands read a YAML configuration file (see the config package) given with --config.
package main

import (
	"fmt"
	"io"
	"os"

	chem "github.com/rmera/chemfeat"
	"github.com/rmera/chemfeat/config"
	"github.com/rmera/chemfeat/feat"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//app holds what the commands share.
type app struct {
	configFile string
	verbose    bool
	stride     int
	skip       int
	cfg        *config.Config
	logger     *zap.Logger
	undo       func()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chemfeat",
		Short: "featurize MD trajectories and score features with VAMP-2",
		Long: `chemfeat turns every frame of a set of molecular dynamics trajectories into a feature
vector (coordinates, distances, angles, torsions) as declared in a YAML configuration file.
The features can be exported, histogrammed, turned into free energy surfaces, or scored
by how much of the slow dynamics of the system they capture (VAMP-2).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "chemfeat.yaml", "configuration file (yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().IntVar(&a.stride, "stride", 0, "keep every n-th frame (overrides the configuration)")
	root.PersistentFlags().IntVar(&a.skip, "skip", 0, "skip the first n frames of each trajectory (overrides the configuration)")

	root.AddCommand(
		a.infoCmd(),
		a.featurizeCmd(),
		a.histoCmd(),
		a.fesCmd(),
		a.scoreCmd(),
		a.acfCmd(),
		a.convergeCmd(),
		a.ramaCmd(),
	)
	return root
}

//setup builds the logger and reads the configuration.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	lcfg := zap.NewProductionConfig()
	if a.verbose {
		lcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	a.cleanup() //a previous setup, if any.
	var err error
	a.logger, err = lcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.undo = zap.ReplaceGlobals(a.logger)

	a.cfg, err = config.Load(a.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("stride") {
		a.cfg.Stride = a.stride
	}
	if cmd.Flags().Changed("skip") {
		a.cfg.Skip = a.skip
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", a.configFile, err)
	}
	zap.L().Debug("Configuration read", zap.String("file", a.configFile), zap.Int("trajectories", len(a.cfg.Trajectories)), zap.Int("features", len(a.cfg.Features)))
	return nil
}

//cleanup flushes the logger and restores the global one replaced by setup.
//It is safe to call several times, and when setup never ran.
func (a *app) cleanup() {
	if a.logger == nil {
		return
	}
	_ = a.logger.Sync()
	a.undo()
	a.logger = nil
	a.undo = nil
}

//execute runs the command line args, with output to stdout and errors to stderr. The logger is
//cleaned up whether the command succeeds or not.
func execute(args []string, stdout, stderr io.Writer) error {
	a := new(app)
	defer a.cleanup()
	root := newRootCmd(a)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	return root.Execute()
}

//featurizer reads the topology and builds the featurizer declared in the configuration.
func (a *app) featurizer() (*feat.Featurizer, error) {
	top, err := chem.PDBFileRead(a.cfg.Topology)
	if err != nil {
		return nil, err
	}
	return a.cfg.Featurizer(top)
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
