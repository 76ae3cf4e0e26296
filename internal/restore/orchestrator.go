package restore

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/steveyegge/dbloader/internal/dbconn"
	"github.com/steveyegge/dbloader/internal/dump"
	"github.com/steveyegge/dbloader/internal/job"
	"github.com/steveyegge/dbloader/internal/metrics"
	"github.com/steveyegge/dbloader/internal/queue"
)

// Orchestrator drives one restore run: it opens the dump directory, spins
// up the worker pool, walks the directory in its four passes, and
// sequences the fast-index and constraint phases around the data phase.
type Orchestrator struct {
	opts    *Options
	metrics *metrics.Metrics

	db   *sql.DB
	dump *dump.Directory

	main        *queue.Queue[*job.Job]
	ready       *queue.Queue[struct{}]
	fastIndex   *queue.Queue[*job.Job]
	constraints *queue.Queue[*job.Job]

	purgeMode PurgeMode
}

// New returns an Orchestrator ready for Run.
func New(opts *Options, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		opts:        opts,
		metrics:     m,
		main:        queue.New[*job.Job](),
		ready:       queue.New[struct{}](),
		fastIndex:   queue.New[*job.Job](),
		constraints: queue.New[*job.Job](),
	}
}

// Run executes the full restore: connect, spin up workers, walk the dump
// directory, drain the fast-index and constraint phases, shut down, and
// replay the post-data schema (views, triggers, post-data statements). It
// returns an error if the run saw at least one statement failure, so the
// caller can reflect that in its process exit code.
func (o *Orchestrator) Run(ctx context.Context, params dbconn.Params) error {
	mode, err := derivePurgeMode(o.opts)
	if err != nil {
		return err
	}
	o.purgeMode = mode

	dir, err := dump.Open(o.opts.Directory, o.opts.SourceDB)
	if err != nil {
		return err
	}
	o.dump = dir

	db, err := dbconn.Open(ctx, params, "")
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	o.db = db
	defer db.Close()

	dbconn.ApplyOrchestratorSession(ctx, db, sessionOptionsFor(o.opts))

	if o.opts.DisableRedoLog {
		log.Println("Disabling InnoDB redo logs for this run")
		if _, err := db.ExecContext(ctx, "ALTER INSTANCE DISABLE INNODB REDO_LOG"); err != nil {
			log.Printf("warning: disabling redo log: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, "/*!40014 SET FOREIGN_KEY_CHECKS=0*/"); err != nil {
		log.Printf("warning: disabling foreign key checks: %v", err)
	}

	workers := o.startWorkers(ctx, params)
	log.Printf("%d threads created", o.opts.Threads)

	if err := o.restoreSchemaPhase(ctx); err != nil {
		return err
	}

	total, err := dir.CountDataFiles()
	if err != nil {
		return err
	}
	o.metrics.SetTotal(uint64(total))

	tables, err := dir.ReadTableInfo()
	if err != nil {
		return err
	}

	dataJobs, err := dir.DataJobs(tables)
	if err != nil {
		return err
	}
	for _, rj := range dataJobs {
		o.main.Push(job.RestoreFilename(rj))
	}

	if o.opts.SyncBeforeAddIndex {
		o.syncThreads()
	}

	o.drainInto(o.fastIndex, o.main)
	o.syncThreads()
	o.drainInto(o.constraints, o.main)

	for range workers {
		o.main.Push(job.Shutdown())
	}
	for _, w := range workers {
		w.wait()
	}

	if o.opts.DisableRedoLog {
		if _, err := db.ExecContext(ctx, "ALTER INSTANCE ENABLE INNODB REDO_LOG"); err != nil {
			log.Printf("warning: re-enabling redo log: %v", err)
		}
	}

	if err := o.restorePostDataPhase(ctx); err != nil {
		return err
	}

	if n := o.metrics.ErrorCount(); n > 0 {
		return fmt.Errorf("restore completed with %d statement error(s)", n)
	}
	return nil
}

func (o *Orchestrator) startWorkers(ctx context.Context, params dbconn.Params) []*worker {
	workers := make([]*worker, o.opts.Threads)
	for i := range workers {
		w := newWorker(i+1, params, o.opts, o.main, o.ready, o.metrics)
		workers[i] = w
		go w.run(ctx)
		o.ready.Pop()
	}
	return workers
}

// syncThreads is the barrier primitive: it pushes one Wait job per worker,
// waits for every worker to acknowledge on the ready queue, then releases
// them all at once. It's used once before the fast-index phase begins (when
// --sync-before-add-index is set), so that no worker starts altering indexes
// while another is still loading data, and once more before the constraints
// phase, so that no constraint is added while data or index jobs are still
// running. Without --sync-before-add-index, index alters may run alongside
// data loads still in progress.
func (o *Orchestrator) syncThreads() {
	b := queue.NewBarrier()
	for i := 0; i < o.opts.Threads; i++ {
		o.main.Push(job.Wait(b))
	}
	for i := 0; i < o.opts.Threads; i++ {
		o.ready.Pop()
	}
	b.Release()
}

// drainInto moves every job currently queued on src onto dst without
// blocking, used to hand the fast-index and constraint alters collected
// during the schema phase to the worker pool's main queue.
func (o *Orchestrator) drainInto(src, dst *queue.Queue[*job.Job]) {
	for {
		j, ok := src.TryPop()
		if !ok {
			return
		}
		dst.Push(j)
	}
}

// restoreSchemaPhase is pass 1: for each table schema file, ensure its
// database exists, purge any existing table per the configured mode, and
// (unless purging skipped it) replay the CREATE TABLE, deferring its
// indexes and constraints onto the fast-index and constraints queues.
func (o *Orchestrator) restoreSchemaPhase(ctx context.Context) error {
	files, err := o.dump.TableSchemaFiles()
	if err != nil {
		return err
	}
	for _, sf := range files {
		if err := o.ensureDatabase(ctx, sf.Database); err != nil {
			log.Printf("critical: creating database `%s`: %v", targetDatabase(o.opts, sf.Database), err)
			o.metrics.IncErrors(ctx)
			continue
		}

		target := targetDatabase(o.opts, sf.Database)
		skipCreate := false
		if o.opts.OverwriteTables {
			skipCreate = purgeTable(ctx, o.db, target, sf.Table, o.purgeMode)
		}
		if skipCreate {
			log.Printf("Skipping table creation `%s`.`%s`", target, sf.Table)
			continue
		}

		log.Printf("Creating table `%s`.`%s`", target, sf.Table)
		restoreFile(ctx, o.db, o.opts, o.opts.Directory, sf.Filename, sf.Database, sf.Table, true, true, true, o.fastIndex, o.constraints, o.metrics)
	}
	return nil
}

// restorePostDataPhase replays schema-post, view, and trigger files, in
// that order, after every worker has shut down.
func (o *Orchestrator) restorePostDataPhase(ctx context.Context) error {
	post, err := o.dump.SchemaPostFiles()
	if err != nil {
		return err
	}
	for _, sf := range post {
		restoreFile(ctx, o.db, o.opts, o.opts.Directory, sf.Filename, sf.Database, "", true, true, false, nil, nil, o.metrics)
	}

	views, err := o.dump.ViewFiles()
	if err != nil {
		return err
	}
	for _, sf := range views {
		restoreFile(ctx, o.db, o.opts, o.opts.Directory, sf.Filename, sf.Database, sf.Table, true, true, false, nil, nil, o.metrics)
	}

	triggers, err := o.dump.TriggerFiles()
	if err != nil {
		return err
	}
	for _, sf := range triggers {
		restoreFile(ctx, o.db, o.opts, o.opts.Directory, sf.Filename, sf.Database, sf.Table, true, true, false, nil, nil, o.metrics)
	}
	return nil
}
