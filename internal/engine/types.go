package engine

import (
	"encoding/json"
	"time"
)

// Version states reported by the engine.
const (
	StateDeployed   = "DEPLOYED"
	StateDeploying  = "DEPLOYING"
	StateUndeployed = "UNDEPLOYED"
)

// Version is a trained processor version.
type Version struct {
	Name             string      `json:"name"`
	DisplayName      string      `json:"displayName"`
	State            string      `json:"state"`
	CreateTime       time.Time   `json:"createTime"`
	LatestEvaluation *Evaluation `json:"latestEvaluation,omitempty"`
}

// Evaluation references the most recent evaluation of a version.
type Evaluation struct {
	Evaluation       string  `json:"evaluation"`
	AggregateMetrics Metrics `json:"aggregateMetrics"`
}

// Metrics holds aggregate evaluation scores.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

// Entity is a single extracted or classified entity.
type Entity struct {
	Type        string  `json:"type"`
	MentionText string  `json:"mentionText"`
	Confidence  float64 `json:"confidence"`
}

// Document is the processed form of a raw document.
type Document struct {
	Text     string            `json:"text"`
	Pages    []json.RawMessage `json:"pages"`
	Entities []Entity          `json:"entities"`
}

// Operation is a long-running engine operation.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *Status         `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Status is the error payload of a failed operation.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ProcessorVersion returns the version produced by a completed train operation.
func (o *Operation) ProcessorVersion() string {
	if len(o.Response) == 0 {
		return ""
	}
	var resp struct {
		ProcessorVersion string `json:"processorVersion"`
	}
	if err := json.Unmarshal(o.Response, &resp); err != nil {
		return ""
	}
	return resp.ProcessorVersion
}

// State returns the common metadata state of the operation, if reported.
func (o *Operation) State() string {
	if len(o.Metadata) == 0 {
		return ""
	}
	var meta struct {
		CommonMetadata struct {
			State string `json:"state"`
		} `json:"commonMetadata"`
	}
	if err := json.Unmarshal(o.Metadata, &meta); err != nil {
		return ""
	}
	return meta.CommonMetadata.State
}

type processRequest struct {
	RawDocument rawDocument `json:"rawDocument"`
}

type rawDocument struct {
	Content  []byte `json:"content"`
	MimeType string `json:"mimeType"`
}

type processResponse struct {
	Document *Document `json:"document"`
}

type importRequest struct {
	BatchDocumentsImportConfigs []importConfig `json:"batchDocumentsImportConfigs"`
}

type importConfig struct {
	BatchInputConfig batchInputConfig `json:"batchInputConfig"`
	AutoSplitConfig  autoSplitConfig  `json:"autoSplitConfig"`
}

type batchInputConfig struct {
	GCSPrefix gcsPrefix `json:"gcsPrefix"`
}

type gcsPrefix struct {
	GCSURIPrefix string `json:"gcsUriPrefix"`
}

type autoSplitConfig struct {
	TrainingSplitRatio float64 `json:"trainingSplitRatio"`
}

type trainRequest struct {
	ProcessorVersion struct {
		DisplayName string `json:"displayName"`
	} `json:"processorVersion"`
}

type listVersionsResponse struct {
	ProcessorVersions []Version `json:"processorVersions"`
	NextPageToken     string    `json:"nextPageToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
