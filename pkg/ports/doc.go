/*
Package ports defines the driven ports (interfaces) of manipd.

These interfaces decouple the composition layer from the collaborators it
drives, so that tests can substitute in-memory implementations.

# Key Interfaces

  - ModelLoader: builds detached model fragments and standalone environments.
  - DistributedLocker: optional cross-replica lock around mutations.
*/
package ports
