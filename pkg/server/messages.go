package server

import (
	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// ParseRequest asks for the structure of a path description
type ParseRequest struct {
	Description string `json:"description"`
}

// ParseResponse describes a parsed path
type ParseResponse struct {
	Description string        `json:"description"`
	Expression  string        `json:"expression"`
	Start       string        `json:"start"`
	Edges       []EdgeMessage `json:"edges,omitempty"`
}

// EdgeMessage is the wire form of an edge
type EdgeMessage struct {
	Kind        string `json:"kind"`
	Property    string `json:"property"`
	Index       *int   `json:"index,omitempty"`
	KeyProperty string `json:"key_property,omitempty"`
	Key         string `json:"key,omitempty"`
}

// ResolveRequest asks for the nodes along a path
type ResolveRequest struct {
	Description string `json:"description"`
}

// ResolveResponse lists the nodes along a path, start node first
type ResolveResponse struct {
	Path PathMessage `json:"path"`
}

// ReduceRequest asks for the shortest equivalent address of a path
type ReduceRequest struct {
	Description string `json:"description"`
}

// ReduceResponse holds the reduced path
type ReduceResponse struct {
	Description string `json:"description"`
	Reduced     bool   `json:"reduced"`
}

// EnumerateRequest asks for the paths reachable from seed paths
type EnumerateRequest struct {
	Seeds             []string `json:"seeds"`
	MaxLength         *int     `json:"max_length,omitempty"` // Unset uses the server default
	StopAtAddressable bool     `json:"stop_at_addressable,omitempty"`
	StopAt            []string `json:"stop_at,omitempty"`
	ExcludeProperties []string `json:"exclude_properties,omitempty"`
	OnlyProperties    []string `json:"only_properties,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	Parallel          bool     `json:"parallel,omitempty"` // Collect on the server's workers before streaming
}

// PathMessage is the wire form of a resolved path
type PathMessage struct {
	Description string        `json:"description"`
	Expression  string        `json:"expression"`
	Nodes       []NodeMessage `json:"nodes"`
}

// NodeMessage is the wire form of a node
type NodeMessage struct {
	ID     uint64                   `json:"id,omitempty"`
	Label  string                   `json:"label,omitempty"`
	Name   string                   `json:"name,omitempty"`
	Source *model.SourceInformation `json:"source,omitempty"`
}

type edgeMessages struct{}

func (edgeMessages) VisitToOneProperty(e graphpath.ToOnePropertyEdge) EdgeMessage {
	return EdgeMessage{Kind: "to_one", Property: e.Property()}
}

func (edgeMessages) VisitToManyPropertyAtIndex(e graphpath.ToManyPropertyAtIndexEdge) EdgeMessage {
	index := e.Index()
	return EdgeMessage{Kind: "at_index", Property: e.Property(), Index: &index}
}

func (edgeMessages) VisitToManyPropertyWithKey(e graphpath.ToManyPropertyWithKeyEdge) EdgeMessage {
	return EdgeMessage{Kind: "with_key", Property: e.Property(), KeyProperty: e.KeyProperty(), Key: e.Key()}
}

// NewParseResponse describes the structure of path
func NewParseResponse(path graphpath.Path) *ParseResponse {
	resp := &ParseResponse{
		Description: path.Description(),
		Expression:  path.Expression(),
		Start:       path.Start(),
	}
	for _, edge := range path.Edges() {
		resp.Edges = append(resp.Edges, graphpath.VisitEdge[EdgeMessage](edge, edgeMessages{}))
	}
	return resp
}

// NewPathMessage converts a resolved path to its wire form
func NewPathMessage(resolved graphpath.ResolvedPath) PathMessage {
	msg := PathMessage{
		Description: resolved.Path().Description(),
		Expression:  resolved.Path().Expression(),
		Nodes:       make([]NodeMessage, 0, resolved.NodeCount()),
	}
	for _, node := range resolved.Nodes() {
		msg.Nodes = append(msg.Nodes, newNodeMessage(node))
	}
	return msg
}

func newNodeMessage(node model.Node) NodeMessage {
	msg := NodeMessage{Name: node.Name(), Source: node.SourceInformation()}
	if inst, ok := node.(*model.Instance); ok {
		msg.ID = inst.ID
		msg.Label = inst.Label
	}
	return msg
}
