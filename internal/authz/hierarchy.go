package authz

import (
	"errors"
	"sort"

	"taskflow/internal/models"
)

// ErrHierarchyCycle is returned together with a partial result when the manager
// graph loops back on itself.
var ErrHierarchyCycle = errors.New("authz: manager hierarchy contains a cycle")

// IDSet is an unordered set of user ids.
type IDSet map[int64]struct{}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Hierarchy is the manager forest built from users' manager references.
type Hierarchy struct {
	reports  map[int64][]int64
	managers map[int64]int64
}

func NewHierarchy(users []models.User) *Hierarchy {
	h := &Hierarchy{
		reports:  make(map[int64][]int64),
		managers: make(map[int64]int64),
	}
	for _, u := range users {
		if u.ManagerID == nil {
			continue
		}
		h.reports[*u.ManagerID] = append(h.reports[*u.ManagerID], u.ID)
		h.managers[u.ID] = *u.ManagerID
	}
	return h
}

// Subordinates returns everybody reporting to id, directly or transitively.
// The user itself is never a member. Every user has at most one manager, so
// reaching an id twice means the graph has a cycle; the traversal then stops
// expanding that branch and ErrHierarchyCycle is returned with the ids found.
func (h *Hierarchy) Subordinates(id int64) (IDSet, error) {
	out := IDSet{}
	if h == nil {
		return out, nil
	}
	visited := map[int64]bool{id: true}
	stack := append([]int64(nil), h.reports[id]...)
	cyclic := false
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			cyclic = true
			continue
		}
		visited[cur] = true
		out[cur] = struct{}{}
		stack = append(stack, h.reports[cur]...)
	}
	if cyclic {
		return out, ErrHierarchyCycle
	}
	return out, nil
}

// ManagerOf returns the direct manager of id.
func (h *Hierarchy) ManagerOf(id int64) (int64, bool) {
	if h == nil {
		return 0, false
	}
	m, ok := h.managers[id]
	return m, ok
}

// CycleMembers lists every user whose manager chain loops.
func (h *Hierarchy) CycleMembers() []int64 {
	members := IDSet{}
	if h == nil {
		return nil
	}
	for start := range h.managers {
		seen := map[int64]bool{}
		cur := start
		for {
			if seen[cur] {
				// cur is on the loop; walk it once to collect members.
				members[cur] = struct{}{}
				for next := h.managers[cur]; next != cur; next = h.managers[next] {
					members[next] = struct{}{}
				}
				break
			}
			seen[cur] = true
			next, ok := h.managers[cur]
			if !ok {
				break
			}
			cur = next
		}
	}
	return members.Sorted()
}

// WouldCycle reports whether making managerID the manager of userID closes a loop.
func (h *Hierarchy) WouldCycle(userID, managerID int64) bool {
	if userID == managerID {
		return true
	}
	subs, _ := h.Subordinates(userID)
	return subs.Has(managerID)
}

// CanAssign decides whether assigner may hand a task to assignee.
func CanAssign(h *Hierarchy, assigner, assignee *models.User) bool {
	if assigner == nil || assignee == nil {
		return false
	}
	return canAssignID(h, assigner, assignee.ID)
}

func canAssignID(h *Hierarchy, assigner *models.User, assigneeID int64) bool {
	if assigner.IsAdmin() {
		return true
	}
	if assigner.ID == assigneeID {
		return true
	}
	subs, _ := h.Subordinates(assigner.ID)
	return subs.Has(assigneeID)
}

// AssignableIDs is the set of users a non-admin may assign to: themself and
// their subordinates.
func AssignableIDs(h *Hierarchy, actor *models.User) IDSet {
	if actor == nil {
		return IDSet{}
	}
	subs, _ := h.Subordinates(actor.ID)
	subs[actor.ID] = struct{}{}
	return subs
}
