/*
 * doc.go, part of chemfeat.
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

/*Package chem is the root package of chemfeat. It provides the atom and topology
structures, PDB reading and writing, atom selections and the geometric functions
(distances, angles, dihedrals) that the featurizer builds on, and the trajectory
and error interfaces shared by the rest of the library.

	**chemfeat Capabilities**

    Reads DCD (plain or compressed), goChem STF and multi-model PDB trajectories,
	either eagerly or as a stream of chunks of frames (packages traj and source).

    Turns each frame into a feature vector: Cartesian coordinates, pairwise or
	explicit distances, inverse distances, contacts, angles, dihedrals and backbone
	phi/psi torsions, RMSD to a reference after superposition, aligned coordinates,
	or user-defined functions (package feat).

    Keeps the per-trajectory feature matrices together with their column labels,
	and exports them as CSV (package store).

    Scores a feature set with the VAMP-2 kinetic variance metric, with
	cross-validation over whole trajectories (package vamp).

    Builds histograms, 2D densities, free energy surfaces and autocorrelation
	functions of features (packages histo and chemstat), and plots them (package chemplot).

    The chemfeat command line program drives all of the above from a YAML file.

*/
package chem
