package openapi

import "maps"

// NewComponents creates Components holding the paging request schema and
// the JSON error responses every handler can return.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields, - prefix for descending. Example: Label,-UpdatedAt"},
				},
			},
			"Error": {
				Type:       "object",
				Required:   []string{"error"},
				Properties: map[string]*Schema{"error": {Type: "string", Description: "Error message"}},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":          errorResponse("Invalid request"),
			"NotFound":            errorResponse("Resource not found"),
			"Conflict":            errorResponse("Resource conflict"),
			"PayloadTooLarge":     errorResponse("Request body too large"),
			"UnprocessableEntity": errorResponse("Request cannot be fulfilled"),
			"BadGateway":          errorResponse("Upstream service unavailable"),
			"GatewayTimeout":      errorResponse("Upstream service timed out"),
		},
	}
}

func errorResponse(description string) *Response {
	return &Response{Description: description, Content: JSONContent(SchemaRef("Error"))}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses,
// replacing any shared response of the same name.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
