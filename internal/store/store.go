// Package store backs the workflow graph with an in-memory store keyed by
// task name. On top of the graph.Store contract it exposes direct
// predecessor/successor lookups, which the scheduler needs on every readiness
// check without materialising a whole predecessor map.
package store

import (
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
)

type TaskStore[T any] struct {
	lock       sync.RWMutex
	vertices   map[string]T
	properties map[string]*graph.VertexProperties

	// outEdges and inEdges store all outgoing and ingoing edges for all
	// vertices, keyed by the name of the vertex at the other end.
	outEdges map[string]map[string]graph.Edge[string]
	inEdges  map[string]map[string]graph.Edge[string]
}

func New[T any]() *TaskStore[T] {
	return &TaskStore[T]{
		vertices:   make(map[string]T),
		properties: make(map[string]*graph.VertexProperties),
		outEdges:   make(map[string]map[string]graph.Edge[string]),
		inEdges:    make(map[string]map[string]graph.Edge[string]),
	}
}

// Predecessors returns the sorted names of the direct dependencies of a task.
func (s *TaskStore[T]) Predecessors(name string) []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return sortedKeys(s.inEdges[name])
}

// Successors returns the sorted names of the direct dependants of a task.
func (s *TaskStore[T]) Successors(name string) []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return sortedKeys(s.outEdges[name])
}

func sortedKeys(edges map[string]graph.Edge[string]) []string {
	names := make([]string, 0, len(edges))
	for name := range edges {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (s *TaskStore[T]) AddVertex(name string, task T, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[name]; ok {
		return graph.ErrVertexAlreadyExists
	}

	s.vertices[name] = task
	s.properties[name] = &p

	return nil
}

func (s *TaskStore[T]) ListVertices() ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	names := make([]string, 0, len(s.vertices))
	for name := range s.vertices {
		names = append(names, name)
	}

	return names, nil
}

func (s *TaskStore[T]) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.vertices), nil
}

func (s *TaskStore[T]) Vertex(name string) (T, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	task, ok := s.vertices[name]
	if !ok {
		return task, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return task, *s.properties[name], nil
}

func (s *TaskStore[T]) RemoveVertex(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[name]; !ok {
		return graph.ErrVertexNotFound
	}
	if len(s.inEdges[name]) > 0 || len(s.outEdges[name]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.inEdges, name)
	delete(s.outEdges, name)
	delete(s.vertices, name)
	delete(s.properties, name)

	return nil
}

func (s *TaskStore[T]) AddEdge(source, target string, edge graph.Edge[string]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[source]; !ok {
		s.outEdges[source] = make(map[string]graph.Edge[string])
	}
	s.outEdges[source][target] = edge

	if _, ok := s.inEdges[target]; !ok {
		s.inEdges[target] = make(map[string]graph.Edge[string])
	}
	s.inEdges[target][source] = edge

	return nil
}

func (s *TaskStore[T]) UpdateEdge(source, target string, edge graph.Edge[string]) error {
	if _, err := s.Edge(source, target); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.outEdges[source][target] = edge
	s.inEdges[target][source] = edge

	return nil
}

func (s *TaskStore[T]) RemoveEdge(source, target string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[target], source)
	delete(s.outEdges[source], target)

	return nil
}

func (s *TaskStore[T]) Edge(source, target string) (graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sourceEdges, ok := s.outEdges[source]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	edge, ok := sourceEdges[target]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *TaskStore[T]) ListEdges() ([]graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	edges := make([]graph.Edge[string], 0)
	for _, out := range s.outEdges {
		for _, edge := range out {
			edges = append(edges, edge)
		}
	}

	return edges, nil
}
