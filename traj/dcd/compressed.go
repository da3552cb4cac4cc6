/*
 * compressed.go, part of chemfeat
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
	"bufio"
	"compress/lzw"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const (
	lzwOrder        = lzw.MSB
	lzwLitwidth int = 8
)

//zstdCloser adapts *zstd.Decoder, whose Close doesn't return an error, to io.Closer.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//Compression returns the compression used for the file fname, judging by its
//extension: "gz", "zst", "lzw" or "" for a plain DCD.
func Compression(fname string) string {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".gz":
		return "gz"
	case ".zst":
		return "zst"
	case ".lzw":
		return "lzw"
	}
	return ""
}

//prepSource takes a filename, opens the file and returns an object that will
//read data from the file, either 'as is' or decompressing first, depending on the extension.
//File extensions supported are .gz (gzip), .zst (z-standard) and .lzw. Any other
//extension is read as a plain DCD file, and a message is logged if it isn't .dcd.
//Thus, prepSource only returns an error if the file can't be opened, or the compressed
//stream can't be initialized.
func (D *DCDObj) prepSource(fname string) (io.Reader, error) {
	var err error
	D.filename = fname
	D.fhandle, err = os.Open(fname)
	if err != nil {
		return nil, newError(err.Error(), D.filename, "os.Open", "prepSource")
	}
	reader := bufio.NewReader(D.fhandle)
	switch Compression(fname) {
	case "lzw":
		r := lzw.NewReader(reader, lzwOrder, lzwLitwidth)
		D.decomp = r
		D.compressed = true
		return bufio.NewReader(r), nil
	case "gz":
		r, err := gzip.NewReader(reader)
		if err != nil {
			return nil, newError(err.Error(), D.filename, "gzip.NewReader", "prepSource")
		}
		D.decomp = r
		D.compressed = true
		return bufio.NewReader(r), nil
	case "zst":
		r, err := zstd.NewReader(reader, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, newError(err.Error(), D.filename, "zstd.NewReader", "prepSource")
		}
		D.decomp = zstdCloser{r}
		D.compressed = true
		return bufio.NewReader(r), nil
	}
	if ext := strings.ToLower(filepath.Ext(fname)); ext != ".dcd" {
		//if it's not a plain DCD, you'll get an error later.
		zap.L().Info("Unknown DCD extension, assuming a plain DCD file", zap.String("file", fname), zap.String("extension", ext))
	}
	return reader, nil
}
