package organization

import (
	"context"

	"github.com/google/uuid"
)

// Department is a node of the organizational tree
type Department struct {
	ID       uuid.UUID
	Name     string
	ParentID *uuid.UUID
}

// IsRoot returns true if this is a root department (no parent)
func (d Department) IsRoot() bool {
	return d.ParentID == nil
}

// ChildLister returns the direct children of a department
type ChildLister interface {
	ChildDepartmentIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
}

// ExpandDepartment returns root followed by every descendant in depth-first
// pre-order. Each department is visited at most once, so a malformed hierarchy
// containing a cycle still terminates.
func ExpandDepartment(ctx context.Context, children ChildLister, root uuid.UUID) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]bool{root: true}
	result := make([]uuid.UUID, 0, 8)
	stack := []uuid.UUID{root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current)

		ids, err := children.ChildDepartmentIDs(ctx, current)
		if err != nil {
			return nil, err
		}
		// push in reverse so the first child is expanded first
		for i := len(ids) - 1; i >= 0; i-- {
			if visited[ids[i]] {
				continue
			}
			visited[ids[i]] = true
			stack = append(stack, ids[i])
		}
	}

	return result, nil
}
