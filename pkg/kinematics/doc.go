/*
Package kinematics is the articulated-body model edited by manipd.

It is deliberately a data model: joints form a rooted tree, each joint may
carry a body with collision objects, and named frames (handles, grippers) are
attached to joints. Placements compose down the tree; there is no collision
checking and no configuration space here.

A Device is not safe for concurrent use. Callers serialize access through
session.Manager.
*/
package kinematics
