package crossword

import "fmt"

// Vec2 is an integer grid coordinate. X grows to the right, Y grows downward.
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// V is a convenience constructor for Vec2.
func V(x, y int) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the componentwise sum of v and o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns the componentwise difference v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Step returns v moved n cells along d.
func (v Vec2) Step(d Direction, n int) Vec2 {
	return v.Add(d.Unit().Scale(n))
}

// Scale multiplies both components by n.
func (v Vec2) Scale(n int) Vec2 {
	return Vec2{X: v.X * n, Y: v.Y * n}
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

func minVec(a, b Vec2) Vec2 {
	return Vec2{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
}

func maxVec(a, b Vec2) Vec2 {
	return Vec2{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
}
