/*
Package session owns the world state shared by every manipd front-end.

A Manager wraps the problem registry behind one process-wide read/write lock.
Front-ends never touch the registry directly: they receive the Manager at
construction time and run each remote call as a single Mutate or Read, so at
most one mutating call executes at a time across all front-ends while reads
proceed in parallel. An optional distributed locker extends the exclusion to
several replicas.
*/
package session
