/*
 * errors.go, part of chemfeat.
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

package chem

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. All the errors returned by the packages of this library
// unwrap to one of these, so they can be told apart with errors.Is.
var (
	// ErrConfiguration signals an invalid declaration: a bad feature
	// descriptor, an impossible dimension request, a descriptor added
	// after the featurizer was frozen, an unknown file format.
	ErrConfiguration = errors.New("configuration error")

	// ErrOutOfRange is the ErrConfiguration raised for atom indexes that
	// don't exist in the topology.
	ErrOutOfRange = fmt.Errorf("%w: index out of range", ErrConfiguration)

	// ErrDataMismatch signals data with incompatible shapes, for instance
	// train and test feature matrices of different width.
	ErrDataMismatch = errors.New("data mismatch")

	// ErrIO signals a missing, unreadable or corrupted file.
	ErrIO = errors.New("I/O error")
)

// Some error messages
const (
	ErrNilData          = "Given nil data"
	ErrNilAtom          = "Given nil atom"
	ErrInconsistentData = "Inconsistent data length"
)

// CError is the error type for the chem package. It unwraps to its kind.
type CError struct {
	msg  string
	deco []string
	kind error
}

func (err *CError) Error() string {
	if len(err.deco) == 0 {
		return err.msg
	}
	return fmt.Sprintf("%s (%s)", err.msg, strings.Join(err.deco, " <- "))
}

// Decorate adds the caller information to the error trail
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Unwrap returns the kind of the error, one of the Err* sentinels, or nil.
func (err *CError) Unwrap() error { return err.kind }

// NewError returns a CError of the given kind, with caller as the first element
// of its decoration trail.
func NewError(kind error, caller, format string, a ...any) *CError {
	return &CError{msg: fmt.Sprintf(format, a...), deco: []string{caller}, kind: kind}
}

// IsLastFrame returns true if err signals the normal end of a trajectory.
func IsLastFrame(err error) bool {
	var l LastFrameError
	return errors.As(err, &l)
}

// ErrDecorate decorates err with caller if err implements Error. Any other
// error is returned unchanged.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		e.Decorate(caller)
	}
	return err
}
