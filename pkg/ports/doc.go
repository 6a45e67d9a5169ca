/*
Package ports defines the driven ports (interfaces) of Arbiter.

These interfaces decouple the orchestrator and the session layer from storage
backends.

# Key Interfaces

  - ResultStore: persists the final scores of each game run.
  - CredentialStore: checks the credentials a remote participant presents.
  - DistributedLocker: keeps one participant identity in a single game across
    replicas.
*/
package ports
