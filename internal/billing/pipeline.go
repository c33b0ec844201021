// Package billing loads billing exports from object storage into the usage
// stats collection.
//
// A run streams the export through two stages joined by a bounded channel: a
// parse stage that reads CSV rows and keeps the Lambda ones, and a write stage
// that inserts them in ordered, acknowledged batches. A slow store therefore
// slows reads from object storage instead of growing memory. The first error
// from either stage ends the run; the read stream and the store connection are
// released on every exit path.
package billing

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"billing-functions-api/internal/adapters/docstore"
	"billing-functions-api/internal/adapters/storage"
	"billing-functions-api/internal/models"
)

const (
	defaultBatchSize  = 100
	defaultBufferSize = 256
	closeTimeout      = 5 * time.Second
	utf8BOM           = "\uFEFF"
)

// Job identifies one ingestion: the export to read and where to write it
type Job struct {
	Bucket           string
	Key              string
	ConnectionString string
	Database         string
	Collection       string
}

// Pipeline runs billing ingestion jobs. It holds no per-run state and may be
// reused across invocations.
type Pipeline struct {
	objects    storage.ObjectStorage
	dialer     docstore.Dialer
	batchSize  int
	bufferSize int
	logger     *logrus.Entry
	stateHook  func(State)
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many documents are written per insert. Default is 100.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithBufferSize sets how many parsed documents may wait for the writer. Default is 256.
func WithBufferSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 0 {
			size = 0
		}
		p.bufferSize = size
		return nil
	}
}

// WithLogger sets the log entry runs derive from.
func WithLogger(entry *logrus.Entry) Option {
	return func(p *Pipeline) error {
		if entry != nil {
			p.logger = entry
		}
		return nil
	}
}

// WithStateHook registers a callback invoked on every state transition of a run.
func WithStateHook(hook func(State)) Option {
	return func(p *Pipeline) error {
		p.stateHook = hook
		return nil
	}
}

// NewPipeline creates a billing ingestion pipeline.
func NewPipeline(objects storage.ObjectStorage, dialer docstore.Dialer, opts ...Option) (*Pipeline, error) {
	if objects == nil {
		return nil, errSourceRequired
	}
	if dialer == nil {
		return nil, errDialerRequired
	}

	p := &Pipeline{
		objects:    objects,
		dialer:     dialer,
		batchSize:  defaultBatchSize,
		bufferSize: defaultBufferSize,
		logger:     logrus.WithField("component", "billing_pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run executes one job and returns exactly one outcome: the success payload or
// the first error observed.
func (p *Pipeline) Run(ctx context.Context, job Job) (resp *models.BillingResponse, err error) {
	if job.Collection == "" {
		job.Collection = models.UsageStatsCollection
	}

	r := &run{
		pipeline: p,
		log: p.logger.WithFields(logrus.Fields{
			"bucket":     job.Bucket,
			"key":        job.Key,
			"collection": job.Collection,
		}),
		started: time.Now(),
	}
	r.transition(StateInit)
	defer func() { r.finish(err) }()

	if job.ConnectionString == "" {
		return nil, ErrMissingConnectionString
	}

	r.transition(StateConnectingDB)
	store, err := p.dialer.Dial(ctx, job.ConnectionString, job.Database)
	if err != nil {
		return nil, &StageError{Stage: StageConnect, Err: err}
	}
	defer r.closeStore(store)

	coll, err := store.Collection(ctx, job.Collection)
	if err != nil {
		return nil, &StageError{Stage: StageCollection, Err: err}
	}

	body, err := p.objects.Open(ctx, job.Bucket, job.Key)
	if err != nil {
		return nil, &StageError{Stage: StageOpen, Err: err}
	}

	r.transition(StateStreaming)
	if err := r.stream(ctx, body, coll); err != nil {
		return nil, err
	}

	return &models.BillingResponse{Data: models.BillingSuccessMessage}, nil
}

// run carries the bookkeeping of a single Pipeline.Run call
type run struct {
	pipeline *Pipeline
	log      *logrus.Entry
	started  time.Time
	state    State

	// written by the parse stage only
	rowsRead    int
	rowsMatched int
	// written by the write stage only
	docsWritten int
	batches     int
}

func (r *run) transition(s State) {
	if r.state.Terminal() {
		r.log.WithFields(logrus.Fields{
			"state": r.state.String(),
			"next":  s.String(),
		}).Warn("Ignoring transition out of terminal state")
		return
	}
	r.state = s
	r.log.WithField("state", s.String()).Debug("Billing pipeline state change")
	if r.pipeline.stateHook != nil {
		r.pipeline.stateHook(s)
	}
}

func (r *run) finish(err error) {
	if r.state.Terminal() {
		return
	}

	fields := logrus.Fields{
		"rows_read":         r.rowsRead,
		"rows_matched":      r.rowsMatched,
		"documents_written": r.docsWritten,
		"batches":           r.batches,
		"duration_ms":       time.Since(r.started).Milliseconds(),
	}

	if err != nil {
		r.transition(StateFailed)
		fields["stage"] = string(StageOf(err))
		r.log.WithFields(fields).WithError(err).Error("Billing ingestion failed")
		return
	}

	r.transition(StateSucceeded)
	r.log.WithFields(fields).Info("Billing ingestion completed")
}

func (r *run) closeStore(store docstore.Store) {
	// The caller's context may already be cancelled; the connection is released regardless.
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := store.Close(ctx); err != nil {
		r.log.WithError(err).Warn("Failed to close document store connection")
	}
}

// stream wires the parse and write stages and waits for both.
func (r *run) stream(ctx context.Context, body io.ReadCloser, coll docstore.Collection) error {
	src := &onceCloser{ReadCloser: body}
	defer src.Close()

	g, gctx := errgroup.WithContext(ctx)

	// Unblocks a parse stage stuck in Read once the other stage has failed.
	stop := context.AfterFunc(gctx, func() { src.Close() })
	defer stop()

	docs := make(chan models.BillingDocument, r.pipeline.bufferSize)

	g.Go(func() error {
		if err := r.parse(gctx, src, docs); err != nil {
			return err
		}
		close(docs)
		return nil
	})

	g.Go(func() error {
		return r.write(gctx, coll, docs)
	})

	return g.Wait()
}

// parse reads CSV rows, filters and projects them, and sends documents to out.
// out is left open on failure so the writer cannot mistake it for end of input.
func (r *run) parse(ctx context.Context, body io.Reader, out chan<- models.BillingDocument) error {
	reader := csv.NewReader(body)

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return parseError(ctx, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return parseError(ctx, err)
		}
		r.rowsRead++

		record := make(models.BillingRecord, len(header))
		for i, name := range header {
			record[name] = fields[i]
		}

		doc, ok, err := Transform(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return &StageError{Stage: StageTransform, Line: line, Err: err}
		}
		if !ok {
			continue
		}
		r.rowsMatched++

		select {
		case out <- doc:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// write drains in, inserting full batches as they fill and the remainder at end of input.
func (r *run) write(ctx context.Context, coll docstore.Collection, in <-chan models.BillingDocument) error {
	size := r.pipeline.batchSize
	batch := make([]docstore.Document, 0, size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := coll.InsertMany(ctx, batch); err != nil {
			return &StageError{Stage: StagePersist, Err: err}
		}
		r.docsWritten += len(batch)
		r.batches++
		batch = make([]docstore.Document, 0, size)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case doc, ok := <-in:
			if !ok {
				return flush()
			}
			batch = append(batch, docstore.Document(doc))
			if len(batch) >= size {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}

// parseError reports a read failure. A failure caused by the stream being
// closed on cancellation is reported as the cancellation itself.
func parseError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	stageErr := &StageError{Stage: StageParse, Err: err}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		stageErr.Line = csvErr.Line
	}
	return stageErr
}

// onceCloser makes Close safe to call from both the stage supervisor and the
// deferred cleanup.
type onceCloser struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() {
		o.err = o.ReadCloser.Close()
	})
	return o.err
}
