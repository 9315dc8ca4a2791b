package export

import (
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// TaskSnapshot is the machine-readable projection of one Task, used to
// serialize a plan for consumption by tooling other than the scheduler
// itself (CI systems, the package manager) without exposing the live
// handler.Context pointers a Task carries.
type TaskSnapshot struct {
	ID         string   `cbor:"id"`
	Handled    bool     `cbor:"handled"`
	DependsOn  []string `cbor:"depends_on"`
	Dependants []string `cbor:"dependants"`
}

// Snapshot flattens a full task graph (every task reachable from base,
// not just the dependency-free starting set) into its CBOR-serializable
// form, in deterministic ID order.
func Snapshot(base []*Task) []TaskSnapshot {
	seen := make(map[string]bool)
	var out []TaskSnapshot
	var visit func(*Task)
	visit = func(t *Task) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		out = append(out, toSnapshot(t))
		for _, dep := range t.DependsOn {
			visit(dep)
		}
		for _, dep := range t.Dependants {
			visit(dep)
		}
	}
	for _, t := range base {
		visit(t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func toSnapshot(t *Task) TaskSnapshot {
	s := TaskSnapshot{ID: t.ID, Handled: t.Handler != nil}
	for _, dep := range t.DependsOn {
		s.DependsOn = append(s.DependsOn, dep.ID)
	}
	for _, dep := range t.Dependants {
		s.Dependants = append(s.Dependants, dep.ID)
	}
	return s
}

// EncodeCBOR serializes a task graph's plan into the compact binary
// format the package manager and CI tooling consume, per spec §6
// "dry-run --format=cbor".
func EncodeCBOR(base []*Task) ([]byte, error) {
	return cbor.Marshal(Snapshot(base))
}
