// Package assembler edits the kinematic tree of a planning problem.
//
// An Assembler grafts loaded models under an anchored root joint, moves the
// root joint of each grafted model, attaches handles and grippers to bodies,
// and flattens environment models into obstacles of the problem.
//
// Assemblers hold no state besides their loader. The caller provides mutual
// exclusion, normally through session.Manager.
package assembler
