package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/firemcp/mcpserver"
)

// Register wires every tool handler into the server's tool table.
func Register(srv *mcpserver.Server, s *Service) error {
	for _, t := range []struct {
		def     mcp.Tool
		handler mcpserver.Handler
	}{
		{getDocumentTool, s.GetDocument},
		{createDocumentTool, s.CreateDocument},
		{updateDocumentTool, s.UpdateDocument},
		{deleteDocumentTool, s.DeleteDocument},
		{queryCollectionTool, s.QueryCollection},
		{runTransactionTool, s.RunTransaction},
		{batchWriteTool, s.BatchWrite},
		{setTTLTool, s.SetTTL},
		{cacheStatsTool, s.CacheStats},
		{clearCacheTool, s.ClearCache},
	} {
		if err := srv.Register(t.def, t.handler); err != nil {
			return err
		}
	}
	return nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var collectionProp = map[string]any{
	"type":        "string",
	"description": "Collection path, e.g. \"users\" or \"users/u1/orders\".",
}

var idProp = map[string]any{
	"type":        "string",
	"description": "Document identifier within the collection.",
}

var fieldTypesProp = map[string]any{
	"type":        "object",
	"description": "Optional map of field name to target type (timestamp, geopoint, reference, array, map, boolean, number, string, null). Listed fields are converted to native store values before writing; unconvertible values are stored as given.",
}

var getDocumentTool = mcp.Tool{
	Name:        "firestore_get_document",
	Description: "Fetch a single document by collection and id. Served from the in-process cache when fresh; the response carries cached=true in that case.",
	InputSchema: objectSchema(map[string]any{
		"collection": collectionProp,
		"id":         idProp,
	}, "collection", "id"),
}

var createDocumentTool = mcp.Tool{
	Name:        "firestore_create_document",
	Description: "Create a document. Omit id to let the store assign one. Fails if the document already exists.",
	InputSchema: objectSchema(map[string]any{
		"collection": collectionProp,
		"id":         idProp,
		"data": map[string]any{
			"type":        "object",
			"description": "Document fields.",
		},
		"fieldTypes": fieldTypesProp,
	}, "collection", "data"),
}

var updateDocumentTool = mcp.Tool{
	Name:        "firestore_update_document",
	Description: "Update a document. Provide data (merged by default; merge=false replaces) or updates, a list of field operations: {field, value} or {field, transform} with transform one of serverTimestamp, increment, arrayUnion, arrayRemove, delete.",
	InputSchema: objectSchema(map[string]any{
		"collection": collectionProp,
		"id":         idProp,
		"data": map[string]any{
			"type":        "object",
			"description": "Fields to write.",
		},
		"merge": map[string]any{
			"type":        "boolean",
			"description": "Merge into the existing document (default true).",
		},
		"updates": map[string]any{
			"type":        "array",
			"description": "Field-level operations, applied instead of data when present.",
		},
		"fieldTypes": fieldTypesProp,
	}, "collection", "id"),
}

var deleteDocumentTool = mcp.Tool{
	Name:        "firestore_delete_document",
	Description: "Delete a document by collection and id.",
	InputSchema: objectSchema(map[string]any{
		"collection": collectionProp,
		"id":         idProp,
	}, "collection", "id"),
}

var queryCollectionTool = mcp.Tool{
	Name:        "firestore_query_collection",
	Description: "Query a collection with optional filters, ordering and a limit. Set collectionGroup=true to query all collections with the given id. Filters are {field, op, value} with op one of ==, !=, <, <=, >, >=, array-contains, array-contains-any, in, not-in.",
	InputSchema: objectSchema(map[string]any{
		"collection": collectionProp,
		"collectionGroup": map[string]any{
			"type":        "boolean",
			"description": "Query across all collections with this id.",
		},
		"filters": map[string]any{
			"type":        "array",
			"description": "Filter clauses, combined with AND. Add valueType to convert the value to a native type first.",
		},
		"orderBy": map[string]any{
			"type":        "array",
			"description": "Sort clauses: {field, direction} with direction asc (default) or desc.",
		},
		"limit": map[string]any{
			"type":        "number",
			"description": "Maximum number of documents to return.",
		},
	}, "collection"),
}

var runTransactionTool = mcp.Tool{
	Name:        "firestore_run_transaction",
	Description: "Run get/set/update/delete operations atomically. Reads must precede writes; read documents come back in the response.",
	InputSchema: objectSchema(map[string]any{
		"operations": map[string]any{
			"type":        "array",
			"description": "Operations: {type: get|set|update|delete, collection, id, data?, merge?, updates?, fieldTypes?}.",
		},
	}, "operations"),
}

var batchWriteTool = mcp.Tool{
	Name:        "firestore_batch_write",
	Description: "Apply up to 500 writes atomically without reads.",
	InputSchema: objectSchema(map[string]any{
		"writes": map[string]any{
			"type":        "array",
			"description": "Writes: {type: create|set|update|delete, collection, id, data?, merge?, updates?, fieldTypes?}.",
		},
	}, "writes"),
}

var setTTLTool = mcp.Tool{
	Name:        "firestore_set_ttl",
	Description: "Write an expiry timestamp onto a document (default field expireAt). A TTL policy on that field makes the store delete the document after expiry.",
	InputSchema: objectSchema(map[string]any{
		"collection": collectionProp,
		"id":         idProp,
		"expireAt": map[string]any{
			"description": "Expiry as an ISO-8601 string or epoch milliseconds.",
		},
		"field": map[string]any{
			"type":        "string",
			"description": "Field to write the expiry into (default expireAt).",
		},
	}, "collection", "id", "expireAt"),
}

var cacheStatsTool = mcp.Tool{
	Name:        "firestore_cache_stats",
	Description: "Report document cache size, hit and miss counts, and hit ratio.",
	InputSchema: objectSchema(map[string]any{}),
}

var clearCacheTool = mcp.Tool{
	Name:        "firestore_clear_cache",
	Description: "Drop all cached documents and reset cache counters.",
	InputSchema: objectSchema(map[string]any{}),
}
