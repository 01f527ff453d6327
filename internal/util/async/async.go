package async

import (
	"context"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// When several tasks fail, the error of the earliest task in the slice is
// returned, so callers get the same answer on every run.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "network", Func: a.checkNetwork},
//	    {Name: "dns zone", Func: a.checkZone},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		index int
		err   error
	}

	resultChan := make(chan result, len(tasks))

	for i, task := range tasks {
		go func() {
			resultChan <- result{index: i, err: task.Func(ctx)}
		}()
	}

	errs := make([]error, len(tasks))
	for range len(tasks) {
		res := <-resultChan
		errs[res.index] = res.err
	}

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("%s: %w", tasks[i].Name, err)
		}
	}
	return nil
}
