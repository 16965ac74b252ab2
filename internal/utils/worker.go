package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool fans tasks out to a fixed set of workers supervised by a
// tomb. A worker returning an error is fatal to the whole tomb.
type WorkerPool struct {
	n     int      // number of workers
	tasks chan any // task connection pool
}

func NewWorkerPool(size uint) WorkerPool {
	return WorkerPool{
		n:     int(size),
		tasks: make(chan any, TASK_CHAN_SIZE),
	}
}

// AddTask queues a task for the next free worker. Blocks once the
// buffer is full, which backpressures the producer.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup starts the full pool of workers on the tomb and returns.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	for i := 0; i < pool.n; i++ {
		id := i
		t.Go(func() error {
			return pool.worker(t, id, work)
		})
	}
}

// Workers wait on tasks in the task connection pool and action them.
func (pool *WorkerPool) worker(t *tomb.Tomb, id int, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
