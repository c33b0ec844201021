package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"billing-functions-api/internal/adapters/docstore"
	"billing-functions-api/internal/adapters/storage"
	"billing-functions-api/internal/models"
)

const (
	testBucket = "market-billing-data"
	testKey    = "billing.csv"
	testURI    = "memory://billing"
	testDB     = "billing"
)

type fixture struct {
	objects *storage.MockObjectStorage
	server  *docstore.MemoryServer
	states  []State
}

func newFixture(t *testing.T, csvData string, opts ...Option) (*fixture, *Pipeline) {
	t.Helper()

	f := &fixture{
		objects: storage.NewMockObjectStorage(),
		server:  docstore.NewMemoryServer(),
	}
	f.objects.Put(testBucket, testKey, []byte(csvData), "")

	opts = append([]Option{WithStateHook(func(s State) { f.states = append(f.states, s) })}, opts...)
	p, err := NewPipeline(f.objects, f.server, opts...)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return f, p
}

func testJob() Job {
	return Job{Bucket: testBucket, Key: testKey, ConnectionString: testURI, Database: testDB}
}

func (f *fixture) assertReleased(t *testing.T) {
	t.Helper()

	if _, _, open := f.server.Stats(); open != 0 {
		t.Errorf("open store connections = %d, want 0", open)
	}
	for i, stream := range f.objects.OpenedStreams() {
		if !stream.Closed() {
			t.Errorf("stream %d was not closed", i)
		}
	}
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	if _, err := NewPipeline(nil, docstore.NewMemoryServer()); !errors.Is(err, errSourceRequired) {
		t.Errorf("NewPipeline(nil source) error = %v, want %v", err, errSourceRequired)
	}
	if _, err := NewPipeline(storage.NewMockObjectStorage(), nil); !errors.Is(err, errDialerRequired) {
		t.Errorf("NewPipeline(nil dialer) error = %v, want %v", err, errDialerRequired)
	}
}

func TestRun_InsertsLambdaRows(t *testing.T) {
	f, p := newFixture(t, "ResourceId,UsageType\narn:aws:lambda:us-east-1:123:function:f,BoxUsage\n")

	resp, err := p.Run(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Data != "success!" {
		t.Errorf("Data = %q, want success!", resp.Data)
	}

	want := []docstore.Document{{
		"ResourceId": "arn:aws:lambda:us-east-1:123:function:f",
		"UsageType":  "BoxUsage",
		"source":     "AWS",
	}}
	if diff := cmp.Diff(want, f.server.Documents(testDB, models.UsageStatsCollection)); diff != "" {
		t.Errorf("stored documents mismatch (-want +got):\n%s", diff)
	}

	wantStates := []State{StateInit, StateConnectingDB, StateStreaming, StateSucceeded}
	if diff := cmp.Diff(wantStates, f.states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	f.assertReleased(t)
}

func TestRun_SkipsNonLambdaRows(t *testing.T) {
	f, p := newFixture(t, "ResourceId,UsageType\ni-0123456789,BoxUsage\n")

	resp, err := p.Run(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Data != models.BillingSuccessMessage {
		t.Errorf("Data = %q, want %q", resp.Data, models.BillingSuccessMessage)
	}
	if docs := f.server.Documents(testDB, models.UsageStatsCollection); len(docs) != 0 {
		t.Errorf("stored %d documents, want 0", len(docs))
	}
	f.assertReleased(t)
}

func TestRun_MalformedRowFails(t *testing.T) {
	csvData := "ResourceId,UsageType\n" +
		"arn:aws:lambda:us-east-1:1:function:a,BoxUsage\n" +
		"arn:aws:lambda:us-east-1:1:function:b,BoxUsage,extra\n" +
		"arn:aws:lambda:us-east-1:1:function:c,BoxUsage\n"
	f, p := newFixture(t, csvData, WithBatchSize(1))

	resp, err := p.Run(context.Background(), testJob())
	if err == nil {
		t.Fatal("Run() error = nil, want parse error")
	}
	if resp != nil {
		t.Errorf("Run() response = %+v, want nil", resp)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != StageParse {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, StageParse)
	}
	if stageErr.Line != 3 {
		t.Errorf("Line = %d, want 3", stageErr.Line)
	}

	for _, doc := range f.server.Documents(testDB, models.UsageStatsCollection) {
		if doc["ResourceId"] == "arn:aws:lambda:us-east-1:1:function:c" {
			t.Error("row after the parse error was persisted")
		}
	}
	if last := f.states[len(f.states)-1]; last != StateFailed {
		t.Errorf("final state = %v, want FAILED", last)
	}
	f.assertReleased(t)
}

func TestRun_MissingConnectionString(t *testing.T) {
	f, p := newFixture(t, "ResourceId\narn:aws:lambda:x\n")

	job := testJob()
	job.ConnectionString = ""

	_, err := p.Run(context.Background(), job)
	if !errors.Is(err, ErrMissingConnectionString) {
		t.Fatalf("Run() error = %v, want %v", err, ErrMissingConnectionString)
	}

	if dials, _, _ := f.server.Stats(); dials != 0 {
		t.Errorf("dials = %d, want 0", dials)
	}
	if calls := f.objects.Calls(); calls != 0 {
		t.Errorf("object storage calls = %d, want 0", calls)
	}

	wantStates := []State{StateInit, StateFailed}
	if diff := cmp.Diff(wantStates, f.states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_DialFailure(t *testing.T) {
	f, p := newFixture(t, "ResourceId\narn:aws:lambda:x\n")
	f.server.DialErr = errors.New("connection refused")

	_, err := p.Run(context.Background(), testJob())
	if StageOf(err) != StageConnect {
		t.Fatalf("Run() stage = %q (err %v), want %q", StageOf(err), err, StageConnect)
	}
	if calls := f.objects.Calls(); calls != 0 {
		t.Errorf("object storage calls = %d, want 0", calls)
	}
}

func TestRun_MissingObject(t *testing.T) {
	f, p := newFixture(t, "")

	job := testJob()
	job.Key = "missing.csv"

	_, err := p.Run(context.Background(), job)
	if StageOf(err) != StageOpen {
		t.Fatalf("Run() stage = %q (err %v), want %q", StageOf(err), err, StageOpen)
	}
	if !storage.IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
	f.assertReleased(t)
}

func TestRun_EmptyFile(t *testing.T) {
	f, p := newFixture(t, "")

	if _, err := p.Run(context.Background(), testJob()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if docs := f.server.Documents(testDB, models.UsageStatsCollection); len(docs) != 0 {
		t.Errorf("stored %d documents, want 0", len(docs))
	}
	f.assertReleased(t)
}

func TestRun_StripsByteOrderMark(t *testing.T) {
	f, p := newFixture(t, "\uFEFFResourceId,Cost\narn:aws:lambda:x,0.5\n")

	if _, err := p.Run(context.Background(), testJob()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	docs := f.server.Documents(testDB, models.UsageStatsCollection)
	if len(docs) != 1 {
		t.Fatalf("stored %d documents, want 1", len(docs))
	}
	if docs[0]["ResourceId"] != "arn:aws:lambda:x" {
		t.Errorf("ResourceId = %v, want arn:aws:lambda:x", docs[0]["ResourceId"])
	}
}

func TestRun_TransformErrorFails(t *testing.T) {
	f, p := newFixture(t, "ResourceId,UsageStartDate\narn:aws:lambda:x,not-a-date\n")

	_, err := p.Run(context.Background(), testJob())

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %v, want *StageError", err)
	}
	if stageErr.Stage != StageTransform || stageErr.Line != 2 {
		t.Errorf("got stage %q line %d, want transform line 2", stageErr.Stage, stageErr.Line)
	}

	var transformErr *TransformError
	if !errors.As(err, &transformErr) || transformErr.Field != "UsageStartDate" {
		t.Errorf("Run() error = %v, want TransformError on UsageStartDate", err)
	}
	f.assertReleased(t)
}

func TestRun_PersistErrorSurfaces(t *testing.T) {
	var b strings.Builder
	b.WriteString("ResourceId,UsageType\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "arn:aws:lambda:us-east-1:1:function:f%d,BoxUsage\n", i)
	}

	f, p := newFixture(t, b.String(), WithBatchSize(3))
	insertErr := errors.New("write concern failed")
	f.server.InsertErr = insertErr
	f.server.InsertErrAfter = 1

	_, err := p.Run(context.Background(), testJob())
	if StageOf(err) != StagePersist {
		t.Fatalf("Run() stage = %q (err %v), want %q", StageOf(err), err, StagePersist)
	}
	if !errors.Is(err, insertErr) {
		t.Errorf("Run() error = %v, want wrapped %v", err, insertErr)
	}
	if docs := f.server.Documents(testDB, models.UsageStatsCollection); len(docs) != 3 {
		t.Errorf("stored %d documents, want 3 from the first batch", len(docs))
	}
	f.assertReleased(t)
}

func TestRun_PreservesFileOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("ResourceId,UsageType\n")
	var want []string
	for i := 0; i < 25; i++ {
		if i%4 == 0 {
			fmt.Fprintf(&b, "i-%d,BoxUsage\n", i)
			continue
		}
		id := fmt.Sprintf("arn:aws:lambda:us-east-1:1:function:f%02d", i)
		want = append(want, id)
		fmt.Fprintf(&b, "%s,Request\n", id)
	}

	f, p := newFixture(t, b.String(), WithBatchSize(4), WithBufferSize(2))

	if _, err := p.Run(context.Background(), testJob()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got []string
	for _, doc := range f.server.Documents(testDB, models.UsageStatsCollection) {
		got = append(got, doc["ResourceId"].(string))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_CollectionCreatedOnce(t *testing.T) {
	f, p := newFixture(t, "ResourceId\narn:aws:lambda:x\n")

	for i := 0; i < 3; i++ {
		if _, err := p.Run(context.Background(), testJob()); err != nil {
			t.Fatalf("Run() #%d error = %v", i, err)
		}
	}

	dials, creates, open := f.server.Stats()
	if dials != 3 {
		t.Errorf("dials = %d, want 3", dials)
	}
	if creates != 1 {
		t.Errorf("creates = %d, want 1", creates)
	}
	if open != 0 {
		t.Errorf("open connections = %d, want 0", open)
	}
	if docs := f.server.Documents(testDB, models.UsageStatsCollection); len(docs) != 3 {
		t.Errorf("stored %d documents, want 3", len(docs))
	}
}

func TestRun_CancelledContext(t *testing.T) {
	f, p := newFixture(t, "ResourceId\narn:aws:lambda:x\narn:aws:lambda:y\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, testJob())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	f.assertReleased(t)
}

func TestRun_CustomCollection(t *testing.T) {
	f, p := newFixture(t, "ResourceId\narn:aws:lambda:x\n")

	job := testJob()
	job.Collection = "lambda_usage"

	if _, err := p.Run(context.Background(), job); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if docs := f.server.Documents(testDB, "lambda_usage"); len(docs) != 1 {
		t.Errorf("stored %d documents in lambda_usage, want 1", len(docs))
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateInit, StateConnectingDB, StateStreaming} {
		if s.Terminal() {
			t.Errorf("%v.Terminal() = true, want false", s)
		}
	}
	for _, s := range []State{StateSucceeded, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%v.Terminal() = false, want true", s)
		}
	}
}

func TestRun_FinishIsFinal(t *testing.T) {
	var states []State
	p, err := NewPipeline(storage.NewMockObjectStorage(), docstore.NewMemoryServer(),
		WithStateHook(func(s State) { states = append(states, s) }))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	r := &run{pipeline: p, log: p.logger}
	r.transition(StateStreaming)
	r.finish(nil)
	r.finish(errors.New("late failure"))
	r.transition(StateStreaming)

	if r.state != StateSucceeded {
		t.Errorf("state = %v, want %v", r.state, StateSucceeded)
	}
	want := []State{StateStreaming, StateSucceeded}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestByteOrderMarkConstant(t *testing.T) {
	if utf8BOM != "\xef\xbb\xbf" {
		t.Errorf("utf8BOM = %q, want UTF-8 encoded U+FEFF", utf8BOM)
	}
}
