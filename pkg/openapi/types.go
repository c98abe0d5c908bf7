package openapi

import "net/http"

// Info is the document's title block.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server is a base URL the documented paths are resolved against.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem holds the operations exposed on one path.
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

func (p *PathItem) operation(method string) *Operation {
	switch method {
	case http.MethodGet:
		return p.Get
	case http.MethodPost:
		return p.Post
	case http.MethodPut:
		return p.Put
	case http.MethodPatch:
		return p.Patch
	case http.MethodDelete:
		return p.Delete
	}
	return nil
}

type Operation struct {
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Parameters  []*Parameter      `json:"parameters,omitempty"`
	RequestBody *RequestBody      `json:"requestBody,omitempty"`
	Responses   map[int]*Response `json:"responses"`
}

type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Required    bool    `json:"required,omitempty"`
	Description string  `json:"description,omitempty"`
	Schema      *Schema `json:"schema"`
}

type RequestBody struct {
	Description string                `json:"description,omitempty"`
	Required    bool                  `json:"required,omitempty"`
	Content     map[string]*MediaType `json:"content"`
}

// Response is either an inline response or a $ref into components.
type Response struct {
	Ref         string                `json:"$ref,omitempty"`
	Description string                `json:"description,omitempty"`
	Content     map[string]*MediaType `json:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Schema is the subset of JSON Schema the API documents use.
type Schema struct {
	Ref         string             `json:"$ref,omitempty"`
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	OneOf       []*Schema          `json:"oneOf,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Example     any                `json:"example,omitempty"`
}

// Components holds reusable schemas and responses.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

// SchemaRef points at a named component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef points at a named component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// JSONContent wraps schema as the application/json content of a body.
func JSONContent(schema *Schema) map[string]*MediaType {
	return map[string]*MediaType{"application/json": {Schema: schema}}
}

func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return &RequestBody{Required: required, Content: JSONContent(SchemaRef(schemaName))}
}

func ResponseJSON(description, schemaName string) *Response {
	return &Response{Description: description, Content: JSONContent(SchemaRef(schemaName))}
}

// ArrayOf describes a JSON array whose elements match items.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: "array", Items: items}
}

// Enum describes a string restricted to values.
func Enum(values ...string) *Schema {
	return &Schema{Type: "string", Enum: values}
}

// Nullable allows JSON null in place of a value matching s.
func Nullable(s *Schema) *Schema {
	return &Schema{OneOf: []*Schema{s, {Type: "null"}}}
}

// Between describes a number within [lo, hi].
func Between(lo, hi float64) *Schema {
	return &Schema{Type: "number", Minimum: &lo, Maximum: &hi}
}

// PageOf describes a paginated result whose data holds the named schema.
func PageOf(schemaName string) *Schema {
	integer := &Schema{Type: "integer"}
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"data":        ArrayOf(SchemaRef(schemaName)),
			"total":       integer,
			"page":        integer,
			"page_size":   integer,
			"total_pages": integer,
		},
	}
}

// PathParam is a required string path parameter.
func PathParam(name, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string"},
	}
}

// UUIDPathParam is a PathParam formatted as a UUID.
func UUIDPathParam(name, description string) *Parameter {
	p := PathParam(name, description)
	p.Schema.Format = "uuid"
	return p
}

func QueryParam(name, typ, description string, required bool) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "query",
		Required:    required,
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}
