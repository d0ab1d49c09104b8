package knnfeat

import "sync"

// runItems executes count independent work items on a bounded pool of
// workers and collects their results in submission order. Items are pure
// functions of their index; result slots are disjoint, so workers write
// without locking.
//
// Fail-fast: after the first error, remaining items are skipped (already
// running items finish). The pool is always fully drained and torn down
// before returning, on both success and failure paths, and on failure no
// partial results escape.
func runItems[T any](count, workers int, fn func(int) (T, error)) ([]T, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	results := make([]T, count)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				mu.Lock()
				skip := firstErr != nil
				mu.Unlock()
				if skip {
					continue
				}

				res, err := fn(i)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				results[i] = res
			}
		}()
	}

	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// buildExtractionItems enumerates the work items for one extraction
// call: the full cross product of classes × folds for the training pass,
// plus one test-pass item per class when a test set is present. Folds
// that hold no rows (possible when a scalar fold count exceeds every
// class size) produce no training item.
func (p *pipeline) buildExtractionItems() []workItem {
	foldUsed := make([]bool, p.numFolds)
	for _, f := range p.folds {
		foldUsed[f] = true
	}

	var items []workItem
	for c := range p.classes {
		for f := 0; f < p.numFolds; f++ {
			if foldUsed[f] {
				items = append(items, workItem{class: c, fold: f})
			}
		}
		if len(p.test) > 0 {
			items = append(items, workItem{class: c, fold: testPass})
		}
	}
	return items
}
