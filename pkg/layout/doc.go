// Package layout provides the geometric vocabulary shared by the historical
// planner and the real-time stabilizer: tunable constants, per-layer height
// allocation, horizontal layer placement, and port/connector assignment.
//
// Both engines produce [flow.LayoutState] values from the same primitives,
// which is what keeps their output visually consistent with each other.
package layout
