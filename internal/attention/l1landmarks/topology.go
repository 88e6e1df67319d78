package l1landmarks

import (
	"fmt"
	"sort"
)

// Topology maps the named groups onto one detector's landmark ids.
type Topology struct {
	Name         string
	MinLandmarks int
	Groups       map[Group][]int
}

// MediaPipeFaceMesh is the 478-point face mesh topology with refined iris
// landmarks.
var MediaPipeFaceMesh = Topology{
	Name:         "mediapipe-face-mesh",
	MinLandmarks: 478,
	Groups: map[Group][]int{
		GroupLeftEye:   {33, 160, 158, 133, 153, 144},
		GroupRightEye:  {362, 385, 387, 263, 373, 380},
		GroupMouth:     {61, 146, 91, 181, 84, 17, 314, 405, 321, 375, 291, 308},
		GroupPose:      {1, 152, 33, 263, 61, 291},
		GroupLeftIris:  {468, 469, 470, 471},
		GroupRightIris: {473, 474, 475, 476},
	},
}

// Validate checks that every group is present with the expected number of
// non-negative ids.
func (t Topology) Validate() error {
	for _, g := range AllGroups {
		ids, ok := t.Groups[g]
		if !ok {
			return fmt.Errorf("topology %s: missing group %s", t.Name, g)
		}
		if len(ids) != g.Size() {
			return fmt.Errorf("topology %s: group %s has %d ids, want %d", t.Name, g, len(ids), g.Size())
		}
		for _, id := range ids {
			if id < 0 {
				return fmt.Errorf("topology %s: group %s has negative id %d", t.Name, g, id)
			}
		}
	}
	return nil
}

// MissingIDs returns the sorted, de-duplicated ids referenced by the
// topology that the set does not contain.
func (t Topology) MissingIDs(set Set) []int {
	seen := make(map[int]bool)
	var missing []int
	for _, ids := range t.Groups {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := set.At(id); !ok {
				missing = append(missing, id)
			}
		}
	}
	sort.Ints(missing)
	return missing
}

// Bind returns a Source reading the topology's groups out of set.
func (t Topology) Bind(set Set) Source {
	return boundSet{topology: t, set: set}
}

type boundSet struct {
	topology Topology
	set      Set
}

func (b boundSet) Points(g Group) []Point {
	ids := b.topology.Groups[g]
	pts := make([]Point, len(ids))
	for i, id := range ids {
		pts[i], _ = b.set.At(id)
	}
	return pts
}
