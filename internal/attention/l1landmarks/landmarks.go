package l1landmarks

import "fmt"

// Point is a 2D landmark position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Set is one face's detected landmarks at one instant, indexed by the
// detector's landmark id.
type Set []Point

// At returns the landmark with the given id. Ids outside the set report
// ok=false and read as the origin, so a truncated detection degrades into
// zero-length distances instead of a panic.
func (s Set) At(id int) (p Point, ok bool) {
	if id < 0 || id >= len(s) {
		return Point{}, false
	}
	return s[id], true
}

// Group names a fixed set of points with a fixed order.
type Group int

const (
	// GroupLeftEye is the image-left eye contour: corner, two upper lid
	// points, corner, two lower lid points. Index 0 is the image-left corner.
	GroupLeftEye Group = iota
	// GroupRightEye follows the GroupLeftEye layout for the image-right eye.
	GroupRightEye
	// GroupMouth is a 12-point lip contour starting at the image-left corner;
	// index 6 is the image-right corner.
	GroupMouth
	// GroupPose holds the head pose anchors: nose tip, chin, left eye outer
	// corner, right eye outer corner, left mouth corner, right mouth corner.
	GroupPose
	// GroupLeftIris is the 4-point iris ring of the image-left eye.
	GroupLeftIris
	// GroupRightIris is the 4-point iris ring of the image-right eye.
	GroupRightIris
)

var groupNames = map[Group]string{
	GroupLeftEye:   "eye-left",
	GroupRightEye:  "eye-right",
	GroupMouth:     "mouth",
	GroupPose:      "pose-anchors",
	GroupLeftIris:  "iris-left",
	GroupRightIris: "iris-right",
}

var groupSizes = map[Group]int{
	GroupLeftEye:   6,
	GroupRightEye:  6,
	GroupMouth:     12,
	GroupPose:      6,
	GroupLeftIris:  4,
	GroupRightIris: 4,
}

// AllGroups lists every group in declaration order.
var AllGroups = []Group{GroupLeftEye, GroupRightEye, GroupMouth, GroupPose, GroupLeftIris, GroupRightIris}

func (g Group) String() string {
	if name, ok := groupNames[g]; ok {
		return name
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// Size returns the number of points a group must contain.
func (g Group) Size() int {
	return groupSizes[g]
}

// Source exposes named point groups. Any detector topology can implement it,
// which keeps the geometry layer independent of a single index scheme.
type Source interface {
	Points(g Group) []Point
}
