/*
 * preview.go, part of chemfeat.
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

package chemplot

import (
	"bytes"
	"os"
	"sync"
	"time"

	chem "github.com/rmera/chemfeat"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

//Preview keeps a rendered PNG of a plot in a temporary file for a fixed time, after which
//the file is removed. It can be closed earlier with Close.
type Preview struct {
	mu     sync.Mutex
	png    []byte
	path   string
	timer  *time.Timer
	closed bool
	done   chan struct{}
}

//NewPreview renders p and keeps it available for d. d must be positive.
func NewPreview(p *plot.Plot, d time.Duration) (*Preview, error) {
	if d <= 0 {
		return nil, chem.NewError(chem.ErrConfiguration, "chemplot.NewPreview", "preview duration must be positive, got %s", d)
	}
	w, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, chem.NewError(chem.ErrIO, "chemplot.NewPreview", "%s", err.Error())
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, chem.NewError(chem.ErrIO, "chemplot.NewPreview", "%s", err.Error())
	}
	f, err := os.CreateTemp("", "chemfeat-preview-*.png")
	if err != nil {
		return nil, chem.NewError(chem.ErrIO, "chemplot.NewPreview", "%s", err.Error())
	}
	_, err = f.Write(buf.Bytes())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, chem.NewError(chem.ErrIO, "chemplot.NewPreview", "%s", err.Error())
	}
	P := &Preview{png: buf.Bytes(), path: f.Name(), done: make(chan struct{})}
	P.mu.Lock()
	P.timer = time.AfterFunc(d, P.Close)
	P.mu.Unlock()
	zap.L().Debug("Preview available", zap.String("file", P.path), zap.Duration("for", d))
	return P, nil
}

//Path returns the name of the temporary file with the rendered plot.
//The file doesn't exist after the preview is closed.
func (P *Preview) Path() string {
	return P.path
}

//PNG returns the rendered plot, or nil if the preview has been closed.
func (P *Preview) PNG() []byte {
	P.mu.Lock()
	defer P.mu.Unlock()
	return P.png
}

//Done returns a channel that is closed when the preview closes.
func (P *Preview) Done() <-chan struct{} {
	return P.done
}

//Close removes the preview. It can be called at any time, any number of times,
//and concurrently with the timer that closes the preview.
func (P *Preview) Close() {
	P.mu.Lock()
	defer P.mu.Unlock()
	if P.closed {
		return
	}
	P.closed = true
	if P.timer != nil {
		P.timer.Stop()
	}
	P.png = nil
	if err := os.Remove(P.path); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("Couldn't remove preview file", zap.String("file", P.path), zap.Error(err))
	}
	close(P.done)
}
