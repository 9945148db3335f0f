package network

import (
	"errors"
)

var (
	// ErrEmptyResult is returned when a filter excludes every record.
	ErrEmptyResult = errors.New("filter excluded every record")
	// ErrUnknownNode is returned when an edge references a missing node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownRelation is returned for relation tags outside the vocabulary.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrDuplicateNode is returned by NewGraph when two nodes share an ID.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrUnknownNodeType is returned for node types outside the chain.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrCycle is returned by TopologicalOrder on a cyclic graph.
	ErrCycle = errors.New("graph contains a cycle")
)
