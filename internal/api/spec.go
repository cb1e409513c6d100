package api

import (
	"github.com/accordhq/accord/internal/config"
	"github.com/accordhq/accord/pkg/openapi"
)

// buildSpec assembles the OpenAPI document for the API module. Paths are
// relative to the module base path.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec("Accord API", cfg.Version)
	spec.SetDescription("Document relationship resolution service: agreement document and invoice registration, batch resolution runs, and invoice-to-contract matching.")
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"filename":        {Type: "string"},
				"content_type":    {Type: "string"},
				"size_bytes":      {Type: "integer"},
				"page_count":      {Type: "integer"},
				"storage_key":     {Type: "string"},
				"doc_type":        {Type: "string", Example: "MSA"},
				"type_confidence": {Type: "number"},
				"status":          {Type: "string"},
				"uploaded_at":     {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"Invoice": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"filename":       {Type: "string"},
				"content_type":   {Type: "string"},
				"size_bytes":     {Type: "integer"},
				"storage_key":    {Type: "string"},
				"invoice_number": {Type: "string"},
				"vendor":         {Type: "string"},
				"po_number":      {Type: "string"},
				"program_code":   {Type: "string"},
				"invoice_date":   {Type: "string", Format: "date-time"},
				"amount":         {Type: "number"},
				"currency":       {Type: "string"},
				"status":         {Type: "string"},
				"uploaded_at":    {Type: "string", Format: "date-time"},
			},
		},
		"Run": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"status":          {Type: "string", Enum: []any{"RUNNING", "COMPLETED", "FAILED"}},
				"document_count":  {Type: "integer"},
				"invoice_count":   {Type: "integer"},
				"group_count":     {Type: "integer"},
				"matched_count":   {Type: "integer"},
				"ambiguous_count": {Type: "integer"},
				"unmatched_count": {Type: "integer"},
				"error_count":     {Type: "integer"},
				"started_at":      {Type: "string", Format: "date-time"},
				"completed_at":    {Type: "string", Format: "date-time"},
			},
		},
		"Group": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"run_id":          {Type: "string", Format: "uuid"},
				"group_key":       {Type: "string", Example: "MSA-11414-1"},
				"primary_path":    {Type: "string"},
				"key_identifiers": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"parties":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"program_codes":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"Match": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"run_id":       {Type: "string", Format: "uuid"},
				"invoice_path": {Type: "string"},
				"status":       {Type: "string", Enum: []any{"MATCHED", "AMBIGUOUS", "UNMATCHED"}},
				"contract_id":  {Type: "string"},
				"match_method": {Type: "string"},
				"confidence":   {Type: "number"},
			},
		},
	})

	spec.Paths["/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List documents",
			Tags:    []string{"documents"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("page", "integer", "Page number", false),
				openapi.QueryParam("page_size", "integer", "Results per page", false),
				openapi.QueryParam("doc_type", "string", "Filter by classified type", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated documents", "Document"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload a document",
			Description: "Multipart upload; text extraction and classification happen at registration.",
			Tags:        []string{"documents"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Registered document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/documents/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document", "Document"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/invoices"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List invoices",
			Tags:    []string{"invoices"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated invoices", "Invoice"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload an invoice",
			Description: "Multipart upload; invoice fields are parsed from the extracted text.",
			Tags:        []string{"invoices"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Registered invoice", "Invoice"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/invoices/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find an invoice",
			Tags:       []string{"invoices"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Invoice ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Invoice", "Invoice"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete an invoice",
			Tags:       []string{"invoices"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Invoice ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/resolutions"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Trigger a resolution run",
			Description: "Runs the resolution engine over all registered documents and invoices.",
			Tags:        []string{"resolutions"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Completed run with full output", "Run"),
				422: {Description: "Grouping partition violation"},
			},
		},
		Get: &openapi.Operation{
			Summary: "List resolution runs",
			Tags:    []string{"resolutions"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated runs", "Run"),
			},
		},
	}
	spec.Paths["/resolutions/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a resolution run",
			Tags:       []string{"resolutions"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Run", "Run"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/resolutions/{id}/groups"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Agreement groups for a run",
			Tags:       []string{"resolutions"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Groups", "Group"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/resolutions/{id}/matches"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Match decisions for a run",
			Tags:       []string{"resolutions"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Matches", "Match"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	return spec
}
