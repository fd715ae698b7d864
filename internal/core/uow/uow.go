package uow

import (
	"errors"
	"fmt"
)

// Uow collects release functions for resources acquired while wiring a process.
// On a failed setup Rollback releases them in reverse order; on a clean
// shutdown Close does the same without a primary error.
type Uow struct {
	cleanups []func() error
}

func UnitOfWork() *Uow {
	return &Uow{}
}

func (r *Uow) Add(name string, fn func() error) {
	r.cleanups = append(r.cleanups, func() error {
		if err := fn(); err != nil {
			return fmt.Errorf("cleanup %s: %w", name, err)
		}
		return nil
	})
}

func (r *Uow) release() []error {
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errs
}

// Rollback releases everything and returns primary joined with cleanup failures.
func (r *Uow) Rollback(primary error) error {
	if primary == nil {
		return nil
	}
	errs := r.release()
	if len(errs) == 0 {
		return primary
	}
	return errors.Join(append([]error{primary}, errs...)...)
}

func (r *Uow) Close() error {
	return errors.Join(r.release()...)
}
