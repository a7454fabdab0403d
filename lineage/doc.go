// Package lineage links segmented objects of consecutive time-lapse frames and
// assembles the links into trajectories.
//
// Input is one descriptor table per frame (see Object). LinkPair gates every
// candidate successor by centroid distance, area ratio and orientation
// difference, then keeps the nearest one. Assemble walks frames in order,
// minting a TrajectoryID for every object nobody linked to and pushing it along
// the links. Tracker wraps both steps and produces the merged table.
package lineage
