/*
 * doc.go, part of chemfeat.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
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

/*
Package stf implements the simple trajectory format (STF), a compressed ASCII trajectory
format that is trivial to read and write from other languages.

The decompressed content of a file is:

A header of key=value lines. The key "prec" gives the precision, an integer > 0.

A line with "**", one or more spaces, and the number of atoms per frame. "**" can
not appear anywhere else in the file.

For each frame, one line per atom with the x, y and z coordinates in Angstrom, each
multiplied by 10^prec and rounded to an integer, followed by a line starting with "*",
optionally followed by 9 numbers with the box vectors.

The compression depends on the last letter of the extension: .stf and .sts use
z-standard, .stz gzip, .str deflate and .stl lzw.
*/
package stf
