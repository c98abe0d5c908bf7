package api

import (
	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/classification"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/internal/intake"
	"github.com/JaimeStill/docent/internal/samples"
	"github.com/JaimeStill/docent/internal/thresholds"
	"github.com/JaimeStill/docent/internal/training"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents  documents.System
	Batches    batches.System
	Thresholds thresholds.System
	Training   *training.System
	Intake     *intake.Controller
	Samples    *samples.Generator
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	conn := runtime.Database.Connection()

	docsSystem := documents.New(conn, runtime.Logger, runtime.Pagination)
	batchesSystem := batches.New(conn, runtime.Logger, runtime.Pagination)
	thresholdsSystem := thresholds.New(conn, runtime.Logger, runtime.Training.Thresholds)

	trainingSystem := training.New(
		training.Deps{
			Documents:  docsSystem,
			Batches:    batchesSystem,
			Thresholds: thresholdsSystem,
			Blobs:      runtime.Storage,
			Launcher:   runtime.Launcher,
			Engine:     runtime.Engine,
			Metrics:    runtime.Metrics,
		},
		training.Options{
			BatchLimit:       runtime.Training.BatchLimit(),
			StageDocuments:   runtime.Training.Staging(),
			MaxWait:          runtime.Training.MaxWaitDuration(),
			SweepConcurrency: runtime.Training.SweepConcurrency,
		},
		runtime.Logger,
	)

	classifier := classification.New(
		runtime.Engine,
		runtime.Storage,
		runtime.Training.ConfidenceThreshold,
		runtime.Logger,
	)

	intakeController := intake.New(
		intake.Deps{
			Documents:  docsSystem,
			Classifier: classifier,
			Trainer:    trainingSystem,
			Locator:    runtime.Storage,
			Metrics:    runtime.Metrics,
		},
		intake.Options{
			ProcessorID:   runtime.ProcessorID,
			RootPrefix:    runtime.Training.RootPrefix,
			ContentTypes:  runtime.Training.ContentTypes,
			WatchedBucket: runtime.Training.WatchedBucket,
		},
		runtime.Logger,
	)

	return &Domain{
		Documents:  docsSystem,
		Batches:    batchesSystem,
		Thresholds: thresholdsSystem,
		Training:   trainingSystem,
		Intake:     intakeController,
		Samples:    samples.New(runtime.Storage, runtime.Training.RootPrefix, runtime.Logger),
	}
}
