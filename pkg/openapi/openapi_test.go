package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/docent/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Docent API", "0.1.0")
	spec.AddServer("/api")
	spec.SetDescription("training service")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Docent API" || spec.Info.Version != "0.1.0" {
		t.Errorf("info: got %+v", spec.Info)
	}
	if spec.Info.Description != "training service" {
		t.Errorf("description: got %s", spec.Info.Description)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers: got %+v", spec.Servers)
	}
	if spec.Components == nil || spec.Paths == nil {
		t.Fatal("components and paths should be initialized")
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"schema", openapi.SchemaRef("Batch").Ref, "#/components/schemas/Batch"},
		{"response", openapi.ResponseRef("NotFound").Ref, "#/components/responses/NotFound"},
		{"request body", openapi.RequestBodyJSON("TriggerCommand", true).Content["application/json"].Schema.Ref, "#/components/schemas/TriggerCommand"},
		{"response body", openapi.ResponseJSON("Batch opened", "Batch").Content["application/json"].Schema.Ref, "#/components/schemas/Batch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("ref: got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	tests := []struct {
		name       string
		param      *openapi.Parameter
		wantIn     string
		wantReq    bool
		wantType   string
		wantFormat string
	}{
		{"path", openapi.PathParam("processor", "Processor ID"), "path", true, "string", ""},
		{"uuid path", openapi.UUIDPathParam("id", "Batch ID"), "path", true, "string", "uuid"},
		{"query", openapi.QueryParam("status", "string", "Document status", false), "query", false, "string", ""},
		{"required query", openapi.QueryParam("page", "integer", "Page", true), "query", true, "integer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.param
			if p.In != tt.wantIn {
				t.Errorf("in: got %s, want %s", p.In, tt.wantIn)
			}
			if p.Required != tt.wantReq {
				t.Errorf("required: got %v, want %v", p.Required, tt.wantReq)
			}
			if p.Schema.Type != tt.wantType || p.Schema.Format != tt.wantFormat {
				t.Errorf("schema: got type=%s format=%s", p.Schema.Type, p.Schema.Format)
			}
		})
	}
}

func TestPathParamSchemasAreIndependent(t *testing.T) {
	uuidParam := openapi.UUIDPathParam("id", "Batch ID")
	plain := openapi.PathParam("id", "Document ID")

	if uuidParam.Schema == plain.Schema {
		t.Fatal("params should not share a schema")
	}
	if plain.Schema.Format != "" {
		t.Errorf("plain param format: got %s", plain.Schema.Format)
	}
}

func TestComponents(t *testing.T) {
	c := openapi.NewComponents()
	c.AddSchemas(map[string]*openapi.Schema{"Batch": {Type: "object"}})
	c.AddResponses(map[string]*openapi.Response{"Unauthorized": {Description: "Not authenticated"}})

	for _, name := range []string{"PageRequest", "Error", "Batch"} {
		if _, ok := c.Schemas[name]; !ok {
			t.Errorf("missing schema: %s", name)
		}
	}
	for _, name := range []string{"BadRequest", "NotFound", "Conflict", "PayloadTooLarge", "BadGateway", "Unauthorized"} {
		if _, ok := c.Responses[name]; !ok {
			t.Errorf("missing response: %s", name)
		}
	}

	bad := c.Responses["BadRequest"].Content["application/json"].Schema
	if bad.Ref != "#/components/schemas/Error" {
		t.Errorf("error responses should share the Error schema, got %q", bad.Ref)
	}
}

func TestServeSpec(t *testing.T) {
	data, err := openapi.NewSpec("Docent API", "0.1.0").Document()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing etag")
	}

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("revalidate status: got %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("304 carried a body of %d bytes", rec.Body.Len())
	}
}

func TestCovers(t *testing.T) {
	spec := openapi.NewSpec("Docent API", "0.1.0")
	spec.Paths["/documents"] = &openapi.PathItem{Get: &openapi.Operation{}}
	spec.Paths["/thresholds/{processor}"] = &openapi.PathItem{
		Get: &openapi.Operation{},
		Put: &openapi.Operation{},
	}
	spec.Paths["/storage/{key}"] = &openapi.PathItem{Get: &openapi.Operation{}}

	tests := []struct {
		pattern string
		want    bool
	}{
		{"GET /documents", true},
		{"POST /documents", false},
		{"PUT /thresholds/{processor}", true},
		{"DELETE /thresholds/{processor}", false},
		{"GET /storage/{key...}", true},
		{"GET /batches", false},
		{"/documents", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := spec.Covers(tt.pattern); got != tt.want {
				t.Errorf("Covers(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := openapi.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Title != "Docent API" {
			t.Errorf("title: got %s, want Docent API", cfg.Title)
		}
		if cfg.Description == "" {
			t.Error("description should have a default")
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("DOCENT_TEST_OPENAPI_TITLE", "Custom API")
		cfg := openapi.Config{}
		if err := cfg.Finalize(&openapi.ConfigEnv{Title: "DOCENT_TEST_OPENAPI_TITLE"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Title != "Custom API" {
			t.Errorf("title: got %s, want Custom API", cfg.Title)
		}
	})

	t.Run("merge", func(t *testing.T) {
		base := openapi.Config{Title: "Base", Description: "kept"}
		base.Merge(&openapi.Config{Title: "Overlay", ServerURL: "https://docent.example.com"})
		if base.Title != "Overlay" || base.Description != "kept" || base.ServerURL != "https://docent.example.com" {
			t.Errorf("got %+v", base)
		}
	})

	t.Run("relative server url", func(t *testing.T) {
		cfg := openapi.Config{ServerURL: "docent.example.com"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error for a server_url without scheme")
		}
	})
}

func TestConfigServer(t *testing.T) {
	tests := []struct {
		serverURL string
		want      string
	}{
		{"", "/api"},
		{"https://docent.example.com", "https://docent.example.com/api"},
		{"https://docent.example.com/", "https://docent.example.com/api"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := openapi.Config{ServerURL: tt.serverURL}
			if got := cfg.Server("/api"); got != tt.want {
				t.Errorf("Server() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSchemaHelpers(t *testing.T) {
	page := openapi.PageOf("Batch")
	if got := page.Properties["data"].Items.Ref; got != "#/components/schemas/Batch" {
		t.Errorf("page data items: got %s", got)
	}

	nullable := openapi.Nullable(&openapi.Schema{Type: "string"})
	if len(nullable.OneOf) != 2 || nullable.OneOf[1].Type != "null" {
		t.Errorf("nullable: got %+v", nullable.OneOf)
	}

	ratio := openapi.Between(0, 1)
	if *ratio.Minimum != 0 || *ratio.Maximum != 1 {
		t.Errorf("between: got [%v, %v]", *ratio.Minimum, *ratio.Maximum)
	}

	data, err := json.Marshal(openapi.Enum("initial", "incremental"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"string","enum":["initial","incremental"]}` {
		t.Errorf("enum json: got %s", data)
	}
}

func TestCoversPatch(t *testing.T) {
	spec := openapi.NewSpec("Docent API", "0.1.0")
	spec.Paths["/thresholds/{processor}"] = &openapi.PathItem{Patch: &openapi.Operation{}}

	if !spec.Covers("PATCH /thresholds/{processor}") {
		t.Error("patch operation should be covered")
	}
}
