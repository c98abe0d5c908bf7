package training_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/internal/engine"
	"github.com/JaimeStill/docent/internal/launcher"
	"github.com/JaimeStill/docent/internal/memstore"
	"github.com/JaimeStill/docent/internal/thresholds"
	"github.com/JaimeStill/docent/internal/training"
)

var defaults = thresholds.Defaults{
	MinDocumentsForInitial:     3,
	MinDocumentsForIncremental: 2,
	MinAccuracyForDeployment:   0.7,
	CheckIntervalMinutes:       60,
}

type fakeLauncher struct {
	mu       sync.Mutex
	err      error
	requests []launcher.Request
	status   map[string]*launcher.JobStatus
}

func (f *fakeLauncher) Launch(_ context.Context, req launcher.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return "job-" + req.BatchID, nil
}

func (f *fakeLauncher) Status(_ context.Context, handle string) (*launcher.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.status[handle]; ok {
		return st, nil
	}
	return &launcher.JobStatus{}, nil
}

type fakeEngine struct {
	mu        sync.Mutex
	f1        *float64
	deployErr error
	deployed  []string
	ops       map[string]*engine.Operation
}

func (f *fakeEngine) Evaluation(context.Context, string) (*float64, error) {
	return f.f1, nil
}

func (f *fakeEngine) Deploy(_ context.Context, version string) (*engine.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deployErr != nil {
		return nil, f.deployErr
	}
	f.deployed = append(f.deployed, version)
	return &engine.Operation{Name: "deploy-" + version}, nil
}

func (f *fakeEngine) Operation(_ context.Context, name string) (*engine.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op, ok := f.ops[name]; ok {
		return op, nil
	}
	return &engine.Operation{Name: name}, nil
}

type harness struct {
	store    *memstore.Store
	blobs    *memstore.Blobs
	launcher *fakeLauncher
	engine   *fakeEngine
	sys      *training.System
}

func newHarness(t *testing.T, opts training.Options) *harness {
	t.Helper()

	h := &harness{
		store:    memstore.New(defaults),
		blobs:    memstore.NewBlobs("documents"),
		launcher: &fakeLauncher{status: map[string]*launcher.JobStatus{}},
		engine:   &fakeEngine{ops: map[string]*engine.Operation{}},
	}

	if opts.BatchLimit == 0 {
		opts.BatchLimit = 50
	}
	h.sys = training.New(training.Deps{
		Documents:  h.store.Documents(),
		Batches:    h.store.Batches(),
		Thresholds: h.store.Thresholds(),
		Blobs:      h.blobs,
		Launcher:   h.launcher,
		Engine:     h.engine,
	}, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return h
}

func (h *harness) seed(t *testing.T, processorID string, status documents.Status, label string, n int) []string {
	t.Helper()

	ids := make([]string, n)
	for i := range n {
		id := fmt.Sprintf("%s-%s-%s-%d", processorID, status, label, i)
		path := fmt.Sprintf("documents/%s/%s.pdf", label, id)

		var lbl *string
		if label != "" {
			lbl = &label
		}

		if _, err := h.store.Documents().Upsert(context.Background(), documents.UpsertCommand{
			DocumentID:  id,
			SourceURI:   h.blobs.URI(path),
			Bucket:      "bucket",
			Path:        path,
			ProcessorID: processorID,
			Label:       lbl,
			Status:      status,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := h.blobs.Upload(context.Background(), path, strings.NewReader("%PDF "+id), "application/pdf"); err != nil {
			t.Fatalf("seed blob: %v", err)
		}
		ids[i] = id
	}
	return ids
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		pending     int
		completed   int
		wantTrain   bool
		wantKind    batches.Kind
		wantPending int
		wantUnused  int
	}{
		{"below thresholds", 2, 1, false, "", 2, 1},
		{"initial", 3, 0, true, batches.KindInitial, 3, 0},
		{"incremental", 0, 2, true, batches.KindIncremental, 0, 2},
		{"initial wins ties", 3, 2, true, batches.KindInitial, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, training.Options{})
			h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", tt.pending)
			h.seed(t, "p1", documents.StatusCompleted, "receipt", tt.completed)

			d, err := h.sys.Evaluate(context.Background(), "p1")
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if d.ShouldTrain != tt.wantTrain || d.Kind != tt.wantKind {
				t.Errorf("decision = (%v, %q), want (%v, %q)", d.ShouldTrain, d.Kind, tt.wantTrain, tt.wantKind)
			}
			if d.PendingCount != tt.wantPending || d.UnusedCount != tt.wantUnused {
				t.Errorf("counts = (%d, %d), want (%d, %d)", d.PendingCount, d.UnusedCount, tt.wantPending, tt.wantUnused)
			}
		})
	}
}

func TestEvaluateCreatesConfigFromDefaults(t *testing.T) {
	h := newHarness(t, training.Options{})

	if _, err := h.sys.Evaluate(context.Background(), "fresh"); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	cfg, err := h.store.Thresholds().Find(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if !cfg.Enabled || cfg.MinDocumentsForInitial != defaults.MinDocumentsForInitial {
		t.Errorf("config = %+v", cfg)
	}
}

func TestEvaluateExclusions(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()

	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 2)
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "", 5)
	h.seed(t, "p2", documents.StatusPendingInitialTraining, "invoice", 5)

	claimed := h.seed(t, "p1", documents.StatusPendingInitialTraining, "claimed", 1)
	doc, _ := h.store.Documents().Find(ctx, claimed[0])
	doc.UsedForTraining = true
	h.store.Put(*doc)

	d, err := h.sys.Evaluate(ctx, "p1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.PendingCount != 2 {
		t.Errorf("pending = %d, want 2 (unlabeled, claimed, and other processors excluded)", d.PendingCount)
	}
	if d.ShouldTrain {
		t.Error("should not train")
	}
}

func TestEvaluateDisabled(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 10)

	disabled := false
	if _, err := h.store.Thresholds().Update(ctx, "p1", thresholds.UpdateCommand{Enabled: &disabled}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	d, err := h.sys.Evaluate(ctx, "p1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.ShouldTrain || d.Kind != "" {
		t.Errorf("decision = %+v, want no training", d)
	}
}

func TestEvaluateActiveBatchBlocks(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 3)

	if _, err := h.sys.Trigger(ctx, "p1", batches.KindInitial); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "receipt", 5)

	d, err := h.sys.Evaluate(ctx, "p1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.ShouldTrain {
		t.Error("evaluation should defer to the in-flight batch")
	}
}

func TestTrigger(t *testing.T) {
	h := newHarness(t, training.Options{BatchLimit: 2})
	ctx := context.Background()
	ids := h.seed(t, "p1", documents.StatusPendingInitialTraining, "purchase_order", 3)

	b, err := h.sys.Trigger(ctx, "p1", batches.KindInitial)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	if b.Status != batches.StatusTraining {
		t.Errorf("status = %s, want training", b.Status)
	}
	if b.JobHandle == nil || *b.JobHandle != "job-"+b.BatchID {
		t.Errorf("job handle = %v", b.JobHandle)
	}
	if len(b.DocumentIDs) != 2 {
		t.Fatalf("claimed %d, want batch limit 2", len(b.DocumentIDs))
	}
	if b.DocumentIDs[0] != ids[0] || b.DocumentIDs[1] != ids[1] {
		t.Errorf("claimed %v, want oldest first %v", b.DocumentIDs, ids[:2])
	}

	for _, id := range b.DocumentIDs {
		doc, _ := h.store.Documents().Find(ctx, id)
		if !doc.UsedForTraining || doc.TrainingBatchID == nil || *doc.TrainingBatchID != b.BatchID {
			t.Errorf("document %s not claimed by batch", id)
		}
	}

	data, ok := h.blobs.Bytes(training.Prefix(b.BatchID) + "manifest.json")
	if !ok {
		t.Fatal("manifest not written")
	}
	var manifest training.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(manifest.Documents) != 2 {
		t.Errorf("manifest documents = %d", len(manifest.Documents))
	}
	if got := manifest.Schema.EntityTypes[0].DisplayName; got != "Purchase Order" {
		t.Errorf("display name = %q", got)
	}
	if _, ok := h.blobs.Bytes(training.Prefix(b.BatchID) + "schema.json"); !ok {
		t.Error("schema not written")
	}

	if len(h.launcher.requests) != 1 {
		t.Fatalf("launches = %d", len(h.launcher.requests))
	}
	req := h.launcher.requests[0]
	if req.ProcessorID != "p1" || req.TrainingType != "initial" || req.ManifestURI == "" {
		t.Errorf("request = %+v", req)
	}
	if req.StagedPrefix != "" {
		t.Errorf("staged prefix set without staging: %q", req.StagedPrefix)
	}
}

func TestTriggerStagesDocuments(t *testing.T) {
	h := newHarness(t, training.Options{StageDocuments: true})
	ctx := context.Background()
	ids := h.seed(t, "p1", documents.StatusCompleted, "invoice", 2)

	b, err := h.sys.Trigger(ctx, "p1", batches.KindIncremental)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	for _, id := range ids {
		key := training.StagedPrefix(b.BatchID) + "invoice/" + id + ".pdf"
		data, ok := h.blobs.Bytes(key)
		if !ok {
			t.Errorf("staged copy %s missing", key)
			continue
		}
		if string(data) != "%PDF "+id {
			t.Errorf("staged copy %s has wrong content", key)
		}
	}

	if got := h.launcher.requests[0].StagedPrefix; got != h.blobs.URI(training.StagedPrefix(b.BatchID)) {
		t.Errorf("staged prefix = %q", got)
	}

	staged, err := h.blobs.List(ctx, training.StagedPrefix(b.BatchID), 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range staged {
		if !strings.HasSuffix(key, ".pdf") {
			t.Errorf("staged prefix holds non-document %s", key)
		}
	}
}

func TestTriggerStagesSameNamedDocuments(t *testing.T) {
	h := newHarness(t, training.Options{StageDocuments: true})
	ctx := context.Background()

	label := "tax"
	paths := map[string]string{
		"tax-2023-a": "documents/tax/2023/a.pdf",
		"tax-2024-a": "documents/tax/2024/a.pdf",
	}
	for id, p := range paths {
		if _, err := h.store.Documents().Upsert(ctx, documents.UpsertCommand{
			DocumentID:  id,
			SourceURI:   h.blobs.URI(p),
			Bucket:      "bucket",
			Path:        p,
			ProcessorID: "p1",
			Label:       &label,
			Status:      documents.StatusCompleted,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := h.blobs.Upload(ctx, p, strings.NewReader("%PDF "+id), "application/pdf"); err != nil {
			t.Fatalf("seed blob: %v", err)
		}
	}

	b, err := h.sys.Trigger(ctx, "p1", batches.KindIncremental)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(b.DocumentIDs) != 2 {
		t.Fatalf("claimed %d, want 2", len(b.DocumentIDs))
	}

	staged, err := h.blobs.List(ctx, training.StagedPrefix(b.BatchID), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 2 {
		t.Fatalf("staged copies = %v, want one per claimed document", staged)
	}

	for id := range paths {
		key := training.StagedPrefix(b.BatchID) + "tax/" + id + ".pdf"
		data, ok := h.blobs.Bytes(key)
		if !ok {
			t.Errorf("staged copy %s missing", key)
			continue
		}
		if string(data) != "%PDF "+id {
			t.Errorf("staged copy %s = %q, want the bytes of %s", key, data, id)
		}
	}

	raw, _ := h.blobs.Bytes(training.Prefix(b.BatchID) + "manifest.json")
	var manifest training.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range manifest.Documents {
		if seen[e.StagedURI] {
			t.Errorf("manifest entries share staged uri %s", e.StagedURI)
		}
		seen[e.StagedURI] = true
	}
}

func TestResetSparesInFlightBatch(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()
	h.seed(t, "p1", documents.StatusCompleted, "invoice", 2)

	b, err := h.sys.Trigger(ctx, "p1", batches.KindIncremental)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	_, err = h.store.Documents().Reset(ctx, documents.ResetCommand{ProcessorID: "p1", BatchID: &b.BatchID})
	if !errors.Is(err, documents.ErrInvalidRequest) {
		t.Fatalf("reset of in-flight batch err = %v, want ErrInvalidRequest", err)
	}

	result, err := h.store.Documents().Reset(ctx, documents.ResetCommand{ProcessorID: "p1"})
	if err != nil {
		t.Fatalf("processor reset: %v", err)
	}
	if result.Released != 0 {
		t.Errorf("released %d claims of the in-flight batch", result.Released)
	}
	for _, id := range b.DocumentIDs {
		doc, _ := h.store.Documents().Find(ctx, id)
		if !doc.UsedForTraining {
			t.Errorf("document %s lost its claim while the batch trains", id)
		}
	}

	msg := "cancelled"
	if _, err := h.store.Batches().Transition(ctx, batches.TransitionCommand{
		BatchID: b.BatchID,
		From:    batches.StatusTraining,
		To:      batches.StatusFailed,
		Error:   &msg,
	}); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	result, err = h.store.Documents().Reset(ctx, documents.ResetCommand{ProcessorID: "p1", BatchID: &b.BatchID})
	if err != nil {
		t.Fatalf("reset after failure: %v", err)
	}
	if result.Released != int64(len(b.DocumentIDs)) {
		t.Errorf("released = %d, want %d", result.Released, len(b.DocumentIDs))
	}
}

func TestTriggerLaunchFailureKeepsClaims(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 3)
	h.launcher.err = errors.New("quota exceeded")

	b, err := h.sys.Trigger(ctx, "p1", batches.KindInitial)
	if !errors.Is(err, training.ErrLaunch) {
		t.Fatalf("err = %v, want ErrLaunch", err)
	}
	if b == nil || b.Status != batches.StatusFailed {
		t.Fatalf("batch = %+v, want failed", b)
	}
	if b.ErrorMessage == nil || !strings.Contains(*b.ErrorMessage, "quota exceeded") {
		t.Errorf("error message = %v", b.ErrorMessage)
	}

	for _, id := range b.DocumentIDs {
		doc, _ := h.store.Documents().Find(ctx, id)
		if !doc.UsedForTraining {
			t.Errorf("document %s released after launch failure", id)
		}
	}

	if _, held := h.store.Lock("p1"); held {
		t.Error("lock should be released when the batch fails")
	}
}

func TestTriggerConflicts(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()

	if _, err := h.sys.Trigger(ctx, "p1", batches.KindInitial); !errors.Is(err, batches.ErrNoCandidates) {
		t.Errorf("empty trigger err = %v, want ErrNoCandidates", err)
	}

	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 3)
	if _, err := h.sys.Trigger(ctx, "p1", batches.KindInitial); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	h.seed(t, "p1", documents.StatusPendingInitialTraining, "receipt", 3)
	if _, err := h.sys.Trigger(ctx, "p1", batches.KindInitial); !errors.Is(err, batches.ErrTrainingInFlight) {
		t.Errorf("second trigger err = %v, want ErrTrainingInFlight", err)
	}
}

func TestConcurrentTriggersClaimOnce(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 8 {
		wg.Go(func() {
			if _, err := h.sys.Trigger(ctx, "p1", batches.KindInitial); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}
}

func launched(t *testing.T, h *harness) *batches.Batch {
	t.Helper()
	h.seed(t, "p1", documents.StatusPendingInitialTraining, "invoice", 3)
	b, err := h.sys.Trigger(context.Background(), "p1", batches.KindInitial)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	return b
}

func find(t *testing.T, h *harness, id string) *batches.Batch {
	t.Helper()
	b, err := h.store.Batches().Find(context.Background(), id)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	return b
}

func acc(f float64) *float64 { return &f }

func TestSweepTraining(t *testing.T) {
	tests := []struct {
		name       string
		status     *launcher.JobStatus
		f1         *float64
		deployErr  error
		wantStatus batches.Status
		wantDeploy bool
	}{
		{
			name:       "still running",
			status:     &launcher.JobStatus{},
			wantStatus: batches.StatusTraining,
		},
		{
			name:       "job failed",
			status:     &launcher.JobStatus{Done: true, Error: "crashed"},
			wantStatus: batches.StatusTrainingFailed,
		},
		{
			name:       "no version",
			status:     &launcher.JobStatus{Done: true},
			wantStatus: batches.StatusTrainingFailed,
		},
		{
			name:       "accurate result deploys",
			status:     &launcher.JobStatus{Done: true, ProcessorVersion: "v1", Accuracy: acc(0.9)},
			wantStatus: batches.StatusDeploying,
			wantDeploy: true,
		},
		{
			name:       "engine evaluation used when job omits accuracy",
			status:     &launcher.JobStatus{Done: true, ProcessorVersion: "v1"},
			f1:         acc(0.75),
			wantStatus: batches.StatusDeploying,
			wantDeploy: true,
		},
		{
			name:       "below minimum accuracy",
			status:     &launcher.JobStatus{Done: true, ProcessorVersion: "v1", Accuracy: acc(0.5)},
			wantStatus: batches.StatusFailed,
		},
		{
			name:       "missing evaluation",
			status:     &launcher.JobStatus{Done: true, ProcessorVersion: "v1"},
			wantStatus: batches.StatusFailed,
		},
		{
			name:       "deploy error",
			status:     &launcher.JobStatus{Done: true, ProcessorVersion: "v1", Accuracy: acc(0.9)},
			deployErr:  errors.New("denied"),
			wantStatus: batches.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, training.Options{})
			b := launched(t, h)

			h.launcher.status[*b.JobHandle] = tt.status
			h.engine.f1 = tt.f1
			h.engine.deployErr = tt.deployErr

			report, err := h.sys.Sweep(context.Background())
			if err != nil {
				t.Fatalf("Sweep: %v", err)
			}
			if report.Checked != 1 {
				t.Errorf("checked = %d", report.Checked)
			}

			got := find(t, h, b.BatchID)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if (len(h.engine.deployed) > 0) != tt.wantDeploy {
				t.Errorf("deployed = %v, want %v", h.engine.deployed, tt.wantDeploy)
			}
			if tt.wantDeploy && (got.DeployHandle == nil || got.ProcessorVersion == nil || got.AccuracyScore == nil) {
				t.Errorf("deploying batch missing fields: %+v", got)
			}
		})
	}
}

func TestSweepDeploymentCompletes(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx := context.Background()
	b := launched(t, h)

	h.launcher.status[*b.JobHandle] = &launcher.JobStatus{Done: true, ProcessorVersion: "v1", Accuracy: acc(0.95)}
	if _, err := h.sys.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	deploying := find(t, h, b.BatchID)
	if deploying.Status != batches.StatusDeploying {
		t.Fatalf("status = %s", deploying.Status)
	}
	if _, held := h.store.Lock("p1"); !held {
		t.Error("lock released before deployment finished")
	}

	h.engine.ops[*deploying.DeployHandle] = &engine.Operation{Name: *deploying.DeployHandle, Done: true}
	if _, err := h.sys.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	deployed := find(t, h, b.BatchID)
	if deployed.Status != batches.StatusDeployed || deployed.DeployedAt == nil {
		t.Errorf("batch = %+v, want deployed", deployed)
	}
	if _, held := h.store.Lock("p1"); held {
		t.Error("lock not released after deployment")
	}
}

func TestSweepTimeout(t *testing.T) {
	h := newHarness(t, training.Options{
		MaxWait: time.Hour,
		Clock:   func() time.Time { return time.Now().Add(2 * time.Hour) },
	})
	b := launched(t, h)

	report, err := h.sys.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Outcomes[training.OutcomeTimedOut] != 1 {
		t.Errorf("outcomes = %v", report.Outcomes)
	}

	got := find(t, h, b.BatchID)
	if got.Status != batches.StatusTimeout {
		t.Errorf("status = %s, want timeout", got.Status)
	}
	if _, held := h.store.Lock("p1"); held {
		t.Error("lock not released after timeout")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, training.Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.sys.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"invoice", "Invoice"},
		{"purchase_order", "Purchase Order"},
		{"W2", "W2"},
	}
	for _, tt := range tests {
		if got := training.DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
