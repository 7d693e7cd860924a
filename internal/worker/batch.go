package worker

import "context"

type indexedJob struct {
	index int
	fn    func(ctx context.Context, i int) error
}

func (j *indexedJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &indexedResult{index: j.index, err: err}
	}
	return &indexedResult{index: j.index, err: j.fn(ctx, j.index)}
}

type indexedResult struct {
	index int
	err   error
}

func (r *indexedResult) GetError() error {
	return r.err
}

// ForEach calls fn for every index in [0, n) using at most workers
// goroutines and returns the errors in index order. fn usually writes its
// output into a caller-owned slice at position i, which keeps the batch
// order stable no matter which worker finishes first.
//
// Indices that never ran because ctx was cancelled report ctx's error.
func ForEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}
	if workers > n {
		workers = n
	}

	pool := NewPoolWithContext(ctx, workers)
	pool.Start()

	for i := 0; i < n; i++ {
		if !pool.Submit(&indexedJob{index: i, fn: fn}) {
			break
		}
	}

	ran := make([]bool, n)
	for _, res := range pool.Wait() {
		r := res.(*indexedResult)
		errs[r.index] = r.err
		ran[r.index] = true
	}

	for i := range errs {
		if !ran[i] {
			if err := ctx.Err(); err != nil {
				errs[i] = err
			} else {
				errs[i] = context.Canceled
			}
		}
	}

	return errs
}
