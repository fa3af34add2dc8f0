package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

type Worker interface {
	Name() string
	Start(ctx context.Context) error
}

// Group runs workers until ctx is done or one of them fails.
type Group []Worker

func (g Group) Start(ctx context.Context) error {
	runCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var wg sync.WaitGroup
	errCh := make(chan error, len(g))
	wg.Add(len(g))
	for _, w := range g {
		go func(w Worker) {
			defer wg.Done()
			if err := w.Start(runCtx); err != nil {
				errCh <- fmt.Errorf("%s: %w", w.Name(), err)
				cancelFn()
			}
		}(w)
	}

	<-runCtx.Done()
	wg.Wait()

	var err error
	close(errCh)
	for wErr := range errCh {
		err = multierror.Append(err, wErr)
	}
	return err
}

type Stopper interface {
	Name() string
	Stop() error
}

// StopAll stops each component in the given order and collects failures.
func StopAll(stoppers ...Stopper) error {
	var err error
	for _, s := range stoppers {
		if sErr := s.Stop(); sErr != nil {
			err = multierror.Append(err, fmt.Errorf("stopping %s: %w", s.Name(), sErr))
		}
	}
	return err
}
