package drawer

// Graph is the read-only view of a workflow the drawer needs.
type Graph interface {
	// TaskNames returns all task names, sorted.
	TaskNames() []string
	// Dependencies returns the direct dependencies of a task, sorted.
	Dependencies(name string) []string
}

// Drawer renders a workflow graph to a file.
type Drawer interface {
	// AddTask adds a task node.
	AddTask(name string) error
	// AddDependency adds an edge from a task to its dependant.
	AddDependency(from, to string) error
	// Draw writes the rendered graph.
	Draw() error
}

// Render feeds a workflow graph into a drawer and draws it.
func Render(g Graph, d Drawer) error {
	for _, name := range g.TaskNames() {
		err := d.AddTask(name)
		if err != nil {
			return err
		}
	}
	for _, name := range g.TaskNames() {
		for _, dep := range g.Dependencies(name) {
			err := d.AddDependency(dep, name)
			if err != nil {
				return err
			}
		}
	}

	return d.Draw()
}
