package domain

import "fmt"

// ValidateParent rejects a parent assignment that would create a cycle in
// the location tree. Locations live in a flat store keyed by id, so the walk
// follows ParentID references upward and fails if it revisits the child.
func ValidateParent(locations []Location, childID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if childID == parentID {
		return fmt.Errorf("location %s cannot be its own parent", childID)
	}
	byID := make(map[string]Location, len(locations))
	for _, loc := range locations {
		byID[loc.ID] = loc
	}
	current := parentID
	for steps := 0; steps <= len(locations); steps++ {
		if current == "" {
			return nil
		}
		if current == childID {
			return fmt.Errorf("assigning parent %s to %s creates a cycle", parentID, childID)
		}
		loc, ok := byID[current]
		if !ok {
			return nil
		}
		current = loc.ParentID
	}
	return fmt.Errorf("location parent chain from %s exceeds store size, assuming cycle", parentID)
}
