package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WriteFailure is one failed sub-write of a multi-record operation.
type WriteFailure struct {
	Step string `json:"step"`
	Err  error  `json:"-"`
}

func (f WriteFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Step, f.Err)
}

// PartialWriteError reports a multi-record operation where some writes
// failed. Writes that succeeded are left in place.
type PartialWriteError struct {
	Op        string
	Succeeded int
	Failures  []WriteFailure
}

func (e *PartialWriteError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %d of %d writes failed: %s",
		e.Op, len(e.Failures), len(e.Failures)+e.Succeeded, strings.Join(parts, "; "))
}

func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

func (e *PartialWriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

type sagaStep struct {
	name string
	run  func(ctx context.Context) error
}

// runSaga attempts every step, at most limit at a time, and never stops on
// the first failure. It returns nil or a *PartialWriteError.
func runSaga(ctx context.Context, op string, limit int, steps []sagaStep) error {
	type indexed struct {
		idx int
		WriteFailure
	}
	var (
		mu     sync.Mutex
		failed []indexed
	)

	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, step := range steps {
		g.Go(func() error {
			if err := step.run(ctx); err != nil {
				mu.Lock()
				failed = append(failed, indexed{idx: i, WriteFailure: WriteFailure{Step: step.name, Err: err}})
				mu.Unlock()
			}
			// Ошибку не возвращаем: errgroup не должен отменять остальные шаги.
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}
	sort.Slice(failed, func(a, b int) bool { return failed[a].idx < failed[b].idx })
	failures := make([]WriteFailure, 0, len(failed))
	for _, f := range failed {
		failures = append(failures, f.WriteFailure)
	}
	return &PartialWriteError{Op: op, Succeeded: len(steps) - len(failures), Failures: failures}
}
