// Package parallel evaluates independent checkpoints and ray batches on a
// pool of workers. Results always come back in input order.
package parallel

import (
	"runtime"
	"sync"
)

// Task is one unit of work for the worker pool
type Task[T any] struct {
	TaskID int // Position of the result in the output
	Work   func() (T, error)
}

// Result contains the outcome of a task
type Result[T any] struct {
	TaskID int
	Value  T
	Error  error
}

// WorkerPool runs tasks on a fixed number of goroutines
type WorkerPool[T any] struct {
	taskQueue   chan Task[T]
	resultQueue chan Result[T]
	workers     []*Worker[T]
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tasks
type Worker[T any] struct {
	ID          int
	taskQueue   chan Task[T]
	resultQueue chan Result[T]
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// queueSize bounds both queues; submitting more tasks than that before
// draining results blocks.
func NewWorkerPool[T any](numWorkers, queueSize int) *WorkerPool[T] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if queueSize < 0 {
		queueSize = 0
	}

	wp := &WorkerPool[T]{
		taskQueue:   make(chan Task[T], queueSize),
		resultQueue: make(chan Result[T], queueSize),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker[T]{
			ID:          i,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool[T]) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop closes the task queue, waits for the workers and closes the result queue
func (wp *WorkerPool[T]) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a task to the worker pool
func (wp *WorkerPool[T]) SubmitTask(task Task[T]) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed result; ok is false once the pool is stopped and drained
func (wp *WorkerPool[T]) GetResult() (Result[T], bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool[T]) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker[T]) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		value, err := task.Work()
		w.resultQueue <- Result[T]{TaskID: task.TaskID, Value: value, Error: err}
	}
}

// Map calls work(i) for every i in [0, n) on numWorkers goroutines and
// returns the values in index order. If any call fails, the error of the
// lowest failing index is returned and no values are.
func Map[T any](n, numWorkers int, work func(i int) (T, error)) ([]T, error) {
	if n == 0 {
		return []T{}, nil
	}
	if numWorkers > n {
		numWorkers = n
	}

	pool := NewWorkerPool[T](numWorkers, n)
	pool.Start()
	for i := 0; i < n; i++ {
		pool.SubmitTask(Task[T]{TaskID: i, Work: func() (T, error) { return work(i) }})
	}
	pool.Stop()

	values := make([]T, n)
	errs := make([]error, n)
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		values[result.TaskID] = result.Value
		errs[result.TaskID] = result.Error
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}
