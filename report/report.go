// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package report computes the strided form of memrefs found in a unit
// and writes one diagnostic line for each of them.
package report

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/gomlx/exceptions"
	"github.com/gx-org/memlayout/memref"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Site is a memref found in a unit, for example the result of an allocation.
type Site struct {
	// Label printed in front of the strided form.
	Label string
	// Type of the memref.
	Type *memref.Type
}

// Option configures a reporter.
type Option func(*Reporter)

// WithParallelism sets the maximum number of sites processed at the same time.
// A value less than 1 means no limit.
func WithParallelism(n int) Option {
	return func(r *Reporter) {
		r.parallelism = n
	}
}

// Reporter writes the strided form of memrefs to a writer.
type Reporter struct {
	w           io.Writer
	parallelism int
}

// New returns a reporter writing to w.
func New(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		w:           w,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report writes a header for the unit followed by one line per site, in the order of the sites.
//
// Strided forms are computed concurrently. A site for which the computation panics
// (for example because its layout does not match its shape) is not printed:
// all such errors are combined and returned once the other sites have been written.
func (r *Reporter) Report(ctx context.Context, unit string, sites []Site) error {
	results := make([]memref.Result, len(sites))
	failures := make([]error, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}
	for i, site := range sites {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			failures[i] = exceptions.TryCatch[error](func() {
				results[i] = site.Type.StridesAndOffset()
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.w, "Testing: %s\n", unit); err != nil {
		return err
	}
	var errs error
	for i, site := range sites {
		if failures[i] != nil {
			klog.Warningf("%s: cannot compute strided form: %v", site.Label, failures[i])
			errs = multierr.Append(errs, errors.Wrapf(failures[i], "%s %s", unit, site.Label))
			continue
		}
		klog.V(1).Infof("%s %s: %s", site.Type, site.Label, results[i])
		if _, err := fmt.Fprintln(r.w, Format(site.Label, site.Type, results[i])); err != nil {
			return multierr.Append(errs, err)
		}
	}
	return errs
}

// Format returns the diagnostic line of a site given its strided form.
func Format(label string, t *memref.Type, res memref.Result) string {
	switch resT := res.(type) {
	case *memref.Strided:
		return fmt.Sprintf("%s %s", label, resT)
	case *memref.NotStrided:
		return fmt.Sprintf("%s cannot be converted to strided form", t)
	}
	return fmt.Sprintf("%s: result %T not supported", label, res)
}
