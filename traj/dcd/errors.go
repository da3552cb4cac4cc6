/*
 * errors.go, part of chemfeat
 *
 * Copyright 2012 Raul Mera Adasme <rmera_changeforat_chem-dot-helsinki-dot-fi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License  as published by
 * the Free Software Foundation; either version 2.1 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 */

package dcd

import (
	"fmt"
	"strings"

	chem "github.com/rmera/chemfeat"
)

//errDecorate is a helper function that decorates the error with the caller's name
//if it implements chem.Error. Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(chem.Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

//Error is the general structure for DCD trajectory errors. It fullfills  chem.Error and chem.TrajError
//It unwraps to one of the error kinds of the chem package.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
	kind     error
}

//newError returns an I/O Error for the file filename.
func newError(message, filename string, deco ...string) *Error {
	return &Error{message: message, filename: filename, deco: deco, critical: true, kind: chem.ErrIO}
}

func (err *Error) Error() string {
	s := fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
	if len(err.deco) > 0 {
		s += " (" + strings.Join(err.deco, " <- ") + ")"
	}
	return s
}

//Decorate Adds new information to the error
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//Filename returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

//Format returns the format of the file (always "dcd") associated to the error
func (err *Error) Format() string { return "dcd" }

//Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

//Unwrap returns the chem error kind (chem.ErrIO, chem.ErrConfiguration...).
func (err *Error) Unwrap() error { return err.kind }

const (
	TrajUnIni           = "Traj object uninitialized to read"
	TrajUnIniWrite      = "Traj object uninitialized to write"
	ReadError           = "Error reading frame"
	UnableToOpen        = "Unable to open file"
	SecurityCheckFailed = "Failed Security Check"
	WrongFormat         = "Wrong format in the DCD file or frame"
	NotEnoughSpace      = "Not enough space in passed blocks"
	EOF                 = "EOF"
)

//lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//lastFrameError does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "dcd" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
