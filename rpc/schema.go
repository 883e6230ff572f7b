package rpc

import "github.com/ladybug-space/ladybug/model"

// nodeTypes lists every node table the graph store exposes (schema.sql),
// since graphstore has no reflective schema catalog to query at runtime.
var nodeTypes = []string{
	"Page", "Chunk", "Folder", "Tag", "Attribute", "DataBlock",
}

var edgeTypes = []model.EdgeType{
	model.EdgeLinksTo,
	model.EdgePageLinksTo,
	model.EdgeHasChunk,
	model.EdgeTagged,
	model.EdgeEmbeds,
	model.EdgeHasAttribute,
	model.EdgeHasDataBlock,
	model.EdgeDataTagged,
	model.EdgeContains,
	model.EdgeFolderContainsPage,
	model.EdgeInFolder,
}

// GraphSchemaResponse is get_graph_schema's response shape.
type GraphSchemaResponse struct {
	NodeTypes []string `json:"node_types"`
	EdgeTypes []string `json:"edge_types"`
	envelope
}

// GetGraphSchema returns the static node/edge type catalog backing Query's
// opaque SQL surface, so a caller can discover what it's allowed to ask for.
func (h *Handlers) GetGraphSchema() GraphSchemaResponse {
	edges := make([]string, len(edgeTypes))
	for i, e := range edgeTypes {
		edges[i] = string(e)
	}
	return GraphSchemaResponse{NodeTypes: nodeTypes, EdgeTypes: edges, envelope: ok()}
}
