// Package drawer renders the workflow DAG as a Graphviz DOT file, with task
// nodes coloured by their topological depth.
package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

// DOTDrawer is a drawer that creates a DOT file with the workflow graph.
type DOTDrawer struct {
	graph       graph.Graph[string, string]
	dotFileName string
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer(dotFileName string) *DOTDrawer {
	return &DOTDrawer{
		dotFileName: dotFileName,
		graph:       graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddTask adds a task node to the graph.
func (d *DOTDrawer) AddTask(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"), graph.VertexAttribute("style", "filled"))
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddDependency adds an edge from a task to its dependant.
func (d *DOTDrawer) AddDependency(from, to string) error {
	err := d.graph.AddEdge(from, to)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", from, to)
	}

	return nil
}

const maxRGB = 240

// depths assigns every task its longest-path distance from a root.
func (d *DOTDrawer) depths() (map[string]int, int, error) {
	order, err := graph.TopologicalSort(d.graph)
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to sort graph")
	}

	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to get predecessor map")
	}

	depths := make(map[string]int, len(order))
	maxDepth := 0
	for _, name := range order {
		depth := 0
		for pred := range predecessors[name] {
			if depths[pred]+1 > depth {
				depth = depths[pred] + 1
			}
		}
		depths[name] = depth
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	return depths, maxDepth, nil
}

// colourise fills every node with a blue-to-red gradient over its depth.
func (d *DOTDrawer) colourise() error {
	depths, maxDepth, err := d.depths()
	if err != nil {
		return err
	}

	for name, depth := range depths {
		fraction := 0.0
		if maxDepth > 0 {
			fraction = float64(depth) / float64(maxDepth)
		}

		fill, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB-maxRGB*fraction)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}
		properties.Attributes["fillcolor"] = fill.ToHEX().String()
		properties.Attributes["fontcolor"] = "white"
	}

	return nil
}

// Draw creates a DOT file with the workflow graph.
func (d *DOTDrawer) Draw() error {
	err := d.colourise()
	if err != nil {
		return err
	}

	file, err := os.Create(d.dotFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.dotFileName)
	}

	err = dot(d.graph, file)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = errors.Wrapf(cerr, "unable to close file %s", d.dotFileName)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to render dot file %s", d.dotFileName)
	}

	return nil
}

const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot(gra graph.Graph[string, string], wrt io.Writer) error {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "->",
		Statements:   make([]statement, 0),
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	vertices := make([]string, 0, len(adjacencyMap))
	for vertex := range adjacencyMap {
		vertices = append(vertices, vertex)
	}
	sort.Strings(vertices)

	for _, vertex := range vertices {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
		})

		targets := make([]string, 0, len(adjacencyMap[vertex]))
		for adjacency := range adjacencyMap[vertex] {
			targets = append(targets, adjacency)
		}
		sort.Strings(targets)

		for _, adjacency := range targets {
			edge := adjacencyMap[vertex][adjacency]
			desc.Statements = append(desc.Statements, statement{
				Source:     vertex,
				Target:     adjacency,
				EdgeWeight: edge.Properties.Weight,
			})
		}
	}

	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return errors.Wrap(tpl.Execute(wrt, desc), "unable to execute template")
}

var _ Drawer = (*DOTDrawer)(nil)
