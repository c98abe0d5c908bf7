package api

import (
	"github.com/JaimeStill/docent/pkg/openapi"
)

func newSpec(cfg *openapi.Config, version, basePath string) *openapi.Spec {
	spec := openapi.NewSpec(cfg.Title, version)
	spec.SetDescription(cfg.Description)
	spec.AddServer(cfg.Server(basePath))
	spec.Components.AddSchemas(schemas)

	for path, item := range paths {
		spec.Paths[path] = item
	}
	return spec
}

var (
	processorParam = openapi.PathParam("processor", "Processor identifier")
	keyParam       = openapi.PathParam("key", "Blob key, may contain slashes")
	pageParams     = []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
	}
)

var paths = map[string]*openapi.PathItem{
	"/events/storage": {
		Post: &openapi.Operation{
			Summary:     "Handle a storage upload event",
			Description: "Accepts a raw object event or a push envelope. Every decodable event is acknowledged with 200.",
			Tags:        []string{"Events"},
			RequestBody: openapi.RequestBodyJSON("StorageEvent", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Intake outcome", "Outcome"),
				400: openapi.ResponseRef("BadRequest"),
				413: openapi.ResponseRef("PayloadTooLarge"),
			},
		},
	},
	"/documents": {
		Get: &openapi.Operation{
			Summary: "List documents",
			Tags:    []string{"Documents"},
			Parameters: append(pageParams,
				openapi.QueryParam("processor_id", "string", "Filter by processor", false),
				openapi.QueryParam("status", "string", "Filter by status", false),
				openapi.QueryParam("label", "string", "Filter by label", false),
				openapi.QueryParam("used_for_training", "boolean", "Filter by claim state", false),
				openapi.QueryParam("training_batch_id", "string", "Filter by batch", false),
				openapi.QueryParam("path", "string", "Path contains", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document page", "DocumentPage"),
			},
		},
	},
	"/documents/{id}": {
		Get: &openapi.Operation{
			Summary:    "Find a document",
			Tags:       []string{"Documents"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document", "Document"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	},
	"/documents/search": {
		Post: &openapi.Operation{
			Summary:     "Search documents",
			Tags:        []string{"Documents"},
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document page", "DocumentPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	},
	"/documents/reset": {
		Post: &openapi.Operation{
			Summary:     "Release claimed documents",
			Description: "Claims held by the processor's in-flight batch are never released. Naming that batch answers 400.",
			Tags:        []string{"Documents"},
			RequestBody: openapi.RequestBodyJSON("ResetCommand", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Released count", "ResetResult"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	},
	"/batches": {
		Get: &openapi.Operation{
			Summary: "List training batches",
			Tags:    []string{"Batches"},
			Parameters: append(pageParams,
				openapi.QueryParam("processor_id", "string", "Filter by processor", false),
				openapi.QueryParam("status", "string", "Filter by status", false),
				openapi.QueryParam("kind", "string", "Filter by kind", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Batch page", "BatchPage"),
			},
		},
	},
	"/batches/{id}": {
		Get: &openapi.Operation{
			Summary:    "Find a training batch",
			Tags:       []string{"Batches"},
			Parameters: []*openapi.Parameter{openapi.UUIDPathParam("id", "Batch identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Batch", "Batch"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	},
	"/thresholds": {
		Get: &openapi.Operation{
			Summary: "List training configs",
			Tags:    []string{"Thresholds"},
			Responses: map[int]*openapi.Response{
				200: {
					Description: "Training configs",
					Content:     openapi.JSONContent(openapi.ArrayOf(openapi.SchemaRef("TrainingConfig"))),
				},
			},
		},
	},
	"/thresholds/{processor}": {
		Get: &openapi.Operation{
			Summary:    "Get a processor's training config",
			Tags:       []string{"Thresholds"},
			Parameters: []*openapi.Parameter{processorParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Training config", "TrainingConfig"),
			},
		},
		Put: &openapi.Operation{
			Summary:     "Update a processor's training config",
			Tags:        []string{"Thresholds"},
			Parameters:  []*openapi.Parameter{processorParam},
			RequestBody: openapi.RequestBodyJSON("TrainingConfigUpdate", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Training config", "TrainingConfig"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	},
	"/training/{processor}/evaluate": {
		Post: &openapi.Operation{
			Summary:    "Evaluate training thresholds",
			Tags:       []string{"Training"},
			Parameters: []*openapi.Parameter{processorParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Decision", "Decision"),
			},
		},
	},
	"/training/{processor}/trigger": {
		Post: &openapi.Operation{
			Summary:     "Start a training batch",
			Description: "Bypasses the threshold evaluator. An empty kind selects initial or incremental from deployment history.",
			Tags:        []string{"Training"},
			Parameters:  []*openapi.Parameter{processorParam},
			RequestBody: openapi.RequestBodyJSON("TriggerRequest", false),
			Responses: map[int]*openapi.Response{
				202: openapi.ResponseJSON("Started batch", "Batch"),
				409: openapi.ResponseRef("Conflict"),
				422: openapi.ResponseRef("UnprocessableEntity"),
				502: openapi.ResponseRef("BadGateway"),
			},
		},
	},
	"/training/sweep": {
		Post: &openapi.Operation{
			Summary: "Advance every in-flight batch once",
			Tags:    []string{"Training"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Sweep report", "SweepReport"),
			},
		},
	},
	"/storage": {
		Get: &openapi.Operation{
			Summary: "List stored blob keys",
			Tags:    []string{"Storage"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("prefix", "string", "Key prefix", false),
				openapi.QueryParam("max_results", "integer", "Maximum keys returned", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob keys", "BlobListing"),
				400: openapi.ResponseRef("BadRequest"),
				504: openapi.ResponseRef("GatewayTimeout"),
			},
		},
	},
	"/storage/{key}": {
		Get: &openapi.Operation{
			Summary:    "Check that a blob exists",
			Tags:       []string{"Storage"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob location", "BlobInfo"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	},
	"/storage/download/{key}": {
		Get: &openapi.Operation{
			Summary:    "Download a blob",
			Tags:       []string{"Storage"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "Blob content"},
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	},
}

var (
	stringType  = &openapi.Schema{Type: "string"}
	nullableStr = openapi.Nullable(&openapi.Schema{Type: "string"})
	timeType    = &openapi.Schema{Type: "string", Format: "date-time"}
	numberType  = &openapi.Schema{Type: "number"}
	intType     = &openapi.Schema{Type: "integer"}
	boolType    = &openapi.Schema{Type: "boolean"}
	ratioType   = openapi.Between(0, 1)
)

var schemas = map[string]*openapi.Schema{
	"StorageEvent": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"bucket":      stringType,
			"name":        stringType,
			"contentType": stringType,
		},
	},
	"Outcome": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"status":             openapi.Enum("success", "partial_success", "skipped", "error"),
			"reason":             stringType,
			"document_id":        stringType,
			"label":              stringType,
			"document_status":    stringType,
			"training_triggered": boolType,
			"training_type":      stringType,
			"batch_id":           stringType,
			"error":              stringType,
		},
	},
	"Document": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"document_id":       stringType,
			"source_uri":        stringType,
			"bucket":            stringType,
			"path":              stringType,
			"processor_id":      stringType,
			"label":             nullableStr,
			"status":            openapi.Enum("pending", "pending_initial_training", "completed", "failed"),
			"used_for_training": boolType,
			"training_batch_id": nullableStr,
			"confidence":        openapi.Nullable(ratioType),
			"extracted_data":    {Type: "object"},
			"error_message":     nullableStr,
			"created_at":        timeType,
			"processed_at":      timeType,
			"updated_at":        timeType,
		},
	},
	"DocumentPage": openapi.PageOf("Document"),
	"ResetCommand": {
		Type:     "object",
		Required: []string{"processor_id"},
		Properties: map[string]*openapi.Schema{
			"processor_id": stringType,
			"batch_id":     stringType,
			"status":       stringType,
		},
	},
	"ResetResult": {
		Type:       "object",
		Properties: map[string]*openapi.Schema{"released": intType},
	},
	"Batch": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"batch_id":          {Type: "string", Format: "uuid"},
			"processor_id":      stringType,
			"kind":              openapi.Enum("initial", "incremental"),
			"document_ids":      openapi.ArrayOf(stringType),
			"status":            stringType,
			"job_handle":        nullableStr,
			"deploy_handle":     nullableStr,
			"processor_version": nullableStr,
			"manifest_uri":      nullableStr,
			"accuracy_score":    openapi.Nullable(ratioType),
			"error_message":     nullableStr,
			"started_at":        timeType,
			"completed_at":      timeType,
			"deployed_at":       timeType,
			"updated_at":        timeType,
		},
	},
	"BatchPage": openapi.PageOf("Batch"),
	"TrainingConfig": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"processor_id":                       stringType,
			"enabled":                            boolType,
			"min_documents_for_initial_training": intType,
			"min_documents_for_incremental":      intType,
			"min_accuracy_for_deployment":        ratioType,
			"check_interval_minutes":             intType,
			"created_at":                         timeType,
			"updated_at":                         timeType,
		},
	},
	"TrainingConfigUpdate": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"enabled":                            boolType,
			"min_documents_for_initial_training": intType,
			"min_documents_for_incremental":      intType,
			"min_accuracy_for_deployment":        ratioType,
			"check_interval_minutes":             intType,
		},
	},
	"Decision": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"processor_id":  stringType,
			"should_train":  boolType,
			"kind":          stringType,
			"pending_count": intType,
			"unused_count":  intType,
			"reason":        stringType,
		},
	},
	"TriggerRequest": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"kind": openapi.Enum("initial", "incremental"),
		},
	},
	"BlobListing": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"container": stringType,
			"prefix":    stringType,
			"keys":      openapi.ArrayOf(stringType),
		},
	},
	"BlobInfo": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"key": stringType,
			"uri": stringType,
		},
	},
	"SweepReport": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"checked":  intType,
			"outcomes": {Type: "object"},
			"errors":   openapi.ArrayOf(stringType),
			"elapsed":  stringType,
		},
	},
}
