// Package export turns an evaluated object graph into a task DAG the
// scheduler can deploy, grounded on the original compiler's
// eikobot/core/exporter.py: Task.process_sub_task's data-only
// passthrough rule (a handler-less resource transfers its own
// dependencies to its dependant rather than being depended on directly)
// and Exporter._parse_task's dedup-by-index recursion (spec §4.5).
package export

import (
	"fmt"
	"sort"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/handler"
	"github.com/kazaamjt/eikobot/internal/value"
)

// Task is one unit of deployable work: a resource plus the handler that
// knows how to deploy it (nil for pure data resources), wired to its
// dependencies and dependants.
type Task struct {
	ID      string
	Ctx     *handler.Context
	Handler handler.Handler

	DependsOn  []*Task
	Dependants []*Task
}

// ProcessSubTask adds subTask as a dependency of t, propagating through
// handler-less (data-only) resources: if subTask has no handler, t
// instead depends directly on everything subTask itself depends on,
// exactly as process_sub_task does (spec §4.5 "data-only passthrough").
func (t *Task) ProcessSubTask(subTask *Task) {
	if subTask.Handler != nil {
		t.DependsOn = append(t.DependsOn, subTask)
		if t.Handler != nil {
			subTask.Dependants = append(subTask.Dependants, t)
		}
		return
	}
	for _, transitive := range subTask.DependsOn {
		t.DependsOn = append(t.DependsOn, transitive)
		if t.Handler != nil {
			transitive.Dependants = append(transitive.Dependants, t)
		}
	}
}

// Exporter walks resource instances into a deduplicated task graph.
type Exporter struct {
	Handlers *handler.Registry

	taskIndex map[string]*Task
	baseTasks []*Task
	visiting  map[string]bool
}

func New(handlers *handler.Registry) *Exporter {
	return &Exporter{
		Handlers:  handlers,
		taskIndex: make(map[string]*Task),
		visiting:  make(map[string]bool),
	}
}

// Export builds tasks for every resource reachable from the given
// top-level resources (spec §4.5: roots are every EikoResource, EikoList
// or EikoDict bound at module scope). BaseTasks are every task with a
// handler and no unresolved dependency - the scheduler's starting set.
func (ex *Exporter) Export(resources []*value.Instance) ([]*Task, error) {
	for _, r := range resources {
		if _, err := ex.parseTask(r); err != nil {
			return nil, err
		}
	}
	sort.Slice(ex.baseTasks, func(i, j int) bool { return ex.baseTasks[i].ID < ex.baseTasks[j].ID })
	return ex.baseTasks, nil
}

func (ex *Exporter) parseTask(resource *value.Instance) (*Task, error) {
	taskID := resource.Index
	if pre, ok := ex.taskIndex[taskID]; ok {
		return pre, nil
	}
	if ex.visiting[taskID] {
		return nil, errors.NewExportError(fmt.Sprintf("dependency cycle detected at resource %q", taskID))
	}
	ex.visiting[taskID] = true
	defer delete(ex.visiting, taskID)

	var h handler.Handler
	if resource.HandlerName != "" {
		factory, ok := ex.Handlers.Lookup(resource.HandlerName)
		if !ok {
			return nil, errors.NewExportError(fmt.Sprintf("no handler registered for %q", resource.HandlerName))
		}
		h = factory()
	}

	task := &Task{ID: taskID, Ctx: handler.NewContext(resource), Handler: h}

	for _, name := range resource.Properties() {
		v, _ := resource.Get(name)
		if err := ex.processValue(task, v); err != nil {
			return nil, err
		}
	}

	ex.taskIndex[taskID] = task
	if task.Handler != nil && len(task.DependsOn) == 0 {
		ex.baseTasks = append(ex.baseTasks, task)
	}
	return task, nil
}

func (ex *Exporter) processValue(task *Task, v value.Value) error {
	switch val := v.(type) {
	case *value.Instance:
		sub, err := ex.parseTask(val)
		if err != nil {
			return err
		}
		task.ProcessSubTask(sub)
	case *value.List:
		for _, elem := range val.Elements {
			if err := ex.processValue(task, elem); err != nil {
				return err
			}
		}
	case *value.Dict:
		for _, entry := range val.Entries {
			if err := ex.processValue(task, entry.Val); err != nil {
				return err
			}
		}
	case *value.Refined:
		return ex.processValue(task, val.Inner)
	}
	return nil
}
