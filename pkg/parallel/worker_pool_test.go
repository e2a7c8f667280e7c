package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
)

func TestMap_PreservesOrder(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			values, err := Map(100, workers, func(i int) (int, error) {
				return i * i, nil
			})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(values) != 100 {
				t.Fatalf("Expected 100 values, got %d", len(values))
			}
			for i, v := range values {
				if v != i*i {
					t.Errorf("values[%d] = %d, want %d", i, v, i*i)
				}
			}
		})
	}
}

func TestMap_LowestErrorWins(t *testing.T) {
	errLow := errors.New("low")
	errHigh := errors.New("high")

	values, err := Map(20, 4, func(i int) (int, error) {
		switch i {
		case 5:
			return 0, errLow
		case 15:
			return 0, errHigh
		}
		return i, nil
	})
	if err != errLow {
		t.Errorf("Expected the lowest-index error, got %v", err)
	}
	if values != nil {
		t.Errorf("Expected no values on error, got %v", values)
	}
}

func TestMap_Empty(t *testing.T) {
	values, err := Map(0, 4, func(i int) (string, error) {
		t.Fatal("work should not be called")
		return "", nil
	})
	if err != nil || values == nil || len(values) != 0 {
		t.Errorf("Expected empty non-nil result, got %v, %v", values, err)
	}
}

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	pool := NewWorkerPool[int](3, 10)
	if pool.GetNumWorkers() != 3 {
		t.Errorf("Expected 3 workers, got %d", pool.GetNumWorkers())
	}

	var calls int32
	pool.Start()
	for i := 0; i < 10; i++ {
		pool.SubmitTask(Task[int]{TaskID: i, Work: func() (int, error) {
			atomic.AddInt32(&calls, 1)
			return i, nil
		}})
	}
	pool.Stop()

	seen := make(map[int]bool)
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Value != result.TaskID {
			t.Errorf("Task %d returned %d", result.TaskID, result.Value)
		}
		seen[result.TaskID] = true
	}
	if len(seen) != 10 || calls != 10 {
		t.Errorf("Expected 10 results and calls, got %d and %d", len(seen), calls)
	}

	if NewWorkerPool[int](0, 1).GetNumWorkers() < 1 {
		t.Error("Expected a non-positive worker count to default to the CPU count")
	}
}
