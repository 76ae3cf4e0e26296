package restore

import (
	"context"
	"database/sql"
	"log"

	"github.com/steveyegge/dbloader/internal/dbconn"
	"github.com/steveyegge/dbloader/internal/job"
	"github.com/steveyegge/dbloader/internal/metrics"
	"github.com/steveyegge/dbloader/internal/queue"
)

// worker owns one exclusive connection and drains the main queue until it
// receives a shutdown job.
type worker struct {
	id      int
	params  dbconn.Params
	opts    *Options
	main    *queue.Queue[*job.Job]
	ready   *queue.Queue[struct{}]
	metrics *metrics.Metrics
	done    chan struct{}
}

func newWorker(id int, params dbconn.Params, opts *Options, main *queue.Queue[*job.Job], ready *queue.Queue[struct{}], m *metrics.Metrics) *worker {
	return &worker{
		id:      id,
		params:  params,
		opts:    opts,
		main:    main,
		ready:   ready,
		metrics: m,
		done:    make(chan struct{}),
	}
}

// run connects, reports ready, and processes jobs until shutdown. Connect
// failures are fatal: there is no automatic reconnect, so a worker that
// can't dial logs the error and exits the whole process with status 1
// instead of letting the run continue short a thread.
func (w *worker) run(ctx context.Context) {
	db, err := dbconn.Open(ctx, w.params, "")
	if err != nil {
		log.Fatalf("thread %d: connecting to server: %v", w.id, err)
	}
	defer db.Close()

	dbconn.ApplyWorkerSession(ctx, db, sessionOptionsFor(w.opts))
	w.ready.Push(struct{}{})

	for {
		j := w.main.Pop()
		switch j.Kind {
		case job.KindRestoreString:
			w.restoreString(ctx, db, j.Restore)
		case job.KindRestoreFilename:
			w.restoreFilename(ctx, db, j.Restore)
		case job.KindWait:
			w.ready.Push(struct{}{})
			j.Barrier.Wait()
		case job.KindShutdown:
			log.Printf("Thread %d shutting down", w.id)
			close(w.done)
			return
		}
	}
}

func (w *worker) restoreString(ctx context.Context, db *sql.DB, rj *job.RestoreJob) {
	log.Printf("Thread %d restoring indexes or constraints on `%s`.`%s`", w.id, rj.Database, rj.Table)
	execMultiStatement(ctx, db, rj.Statement, w.metrics, rj.Database, rj.Table, "")
}

func (w *worker) restoreFilename(ctx context.Context, db *sql.DB, rj *job.RestoreJob) {
	n := w.metrics.IncProgress(ctx)
	log.Printf("Thread %d restoring `%s`.`%s` part %d. Progress %d of %d.",
		w.id, rj.Database, rj.Table, rj.Part, n, w.metrics.Total())
	restoreFile(ctx, db, w.opts, w.opts.Directory, rj.Filename, rj.Database, rj.Table, false, true, false, nil, nil, w.metrics)
}

// wait blocks until the worker has processed its shutdown job.
func (w *worker) wait() {
	<-w.done
}

func sessionOptionsFor(opts *Options) dbconn.SessionOptions {
	return dbconn.SessionOptions{
		EnableBinlog: opts.EnableBinlog,
		SetNames:     opts.SetNames,
		BatchCommits: opts.CommitCount > 1,
	}
}
