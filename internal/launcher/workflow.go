package launcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/pkg/formatting"
)

// Workflow execution states.
const (
	ExecutionActive    = "ACTIVE"
	ExecutionSucceeded = "SUCCEEDED"
	ExecutionFailed    = "FAILED"
	ExecutionCancelled = "CANCELLED"
)

type execution struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Result string `json:"result,omitempty"`
	Error  *struct {
		Payload string `json:"payload"`
		Context string `json:"context"`
	} `json:"error,omitempty"`
}

type workflowResult struct {
	ProcessorVersion string   `json:"processor_version"`
	Accuracy         *float64 `json:"accuracy"`
}

// Workflow launches training as a workflow execution.
type Workflow struct {
	http     *http.Client
	baseURL  string
	workflow string
	logger   *slog.Logger
}

// NewWorkflow creates a Workflow launcher authenticated by ts.
func NewWorkflow(cfg *config.LauncherConfig, ts oauth2.TokenSource, logger *slog.Logger) *Workflow {
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = cfg.TimeoutDuration()

	return &Workflow{
		http:    client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		workflow: fmt.Sprintf(
			"projects/%s/locations/%s/workflows/%s",
			cfg.Project, cfg.Location, cfg.Workflow,
		),
		logger: logger.With("system", "launcher", "launcher", "workflow"),
	}
}

// Launch starts an execution whose argument is the JSON-encoded request.
// The execution name is the job handle.
func (l *Workflow) Launch(ctx context.Context, req Request) (string, error) {
	arg, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encode argument: %v", ErrLaunch, err)
	}

	var exec execution
	if err := l.do(ctx, http.MethodPost, "/v1/"+l.workflow+"/executions", map[string]string{"argument": string(arg)}, &exec); err != nil {
		return "", err
	}
	if exec.Name == "" {
		return "", fmt.Errorf("%w: execution response has no name", ErrLaunch)
	}

	l.logger.Info(
		"workflow execution started",
		"execution", exec.Name,
		"processor_id", req.ProcessorID,
		"batch_id", req.BatchID,
	)
	return exec.Name, nil
}

// Status reads the execution and, on success, its result.
func (l *Workflow) Status(ctx context.Context, handle string) (*JobStatus, error) {
	var exec execution
	if err := l.do(ctx, http.MethodGet, "/v1/"+handle, nil, &exec); err != nil {
		return nil, err
	}

	switch exec.State {
	case ExecutionSucceeded:
		status := &JobStatus{Done: true}
		if exec.Result != "" {
			res, err := formatting.Parse[workflowResult](exec.Result)
			if err != nil {
				l.logger.Warn("unparseable workflow result", "execution", handle, "error", err)
			} else {
				status.ProcessorVersion = res.ProcessorVersion
				status.Accuracy = res.Accuracy
			}
		}
		return status, nil
	case ExecutionFailed, ExecutionCancelled:
		msg := strings.ToLower(exec.State)
		if exec.Error != nil && exec.Error.Payload != "" {
			msg = exec.Error.Payload
		}
		return &JobStatus{Done: true, Error: msg}, nil
	default:
		return &JobStatus{}, nil
	}
}

func (l *Workflow) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrLaunch, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrLaunch, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrLaunch, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrLaunch, err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %d %s", ErrLaunch, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrLaunch, err)
	}
	return nil
}
