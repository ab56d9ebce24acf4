/*
Package manipd is a manipulation-planning problem server: it assembles
robots, objects and environments into kinematic problems and exposes them
to remote clients through several front-ends sharing one problem registry.

# Concept

A problem holds one composite device, named "Robot", built by grafting
models loaded from packages on disk. Each model becomes a named subtree
(joints, bodies, handles, grippers) under a single anchor root. Environment
models contribute fixed obstacles and contact surfaces instead.

Remote clients drive the server through front-ends published under a
namespace/context/service triple:

  - hpp/corbaserver/problem: create, select and reset problems; list obstacles
  - hpp/corbaserver/manipulation: insert models, place root joints, attach
    handles and grippers, create the constraint graph
  - extensions (hpp/corbaserver/<kind>): e.g. an MCP endpoint for agents, or
    a manipulation API bound to a dedicated problem

Every front-end edits the registry through one session manager, so calls
from different front-ends are serialised against each other.

# Usage

The manipd command starts every configured front-end:

	manipd serve --config manipd.yaml

Inside the module, cmd/manipd drives the composition root like this:

	package main

	import (
		"context"
		"log"
		"os/signal"
		"syscall"

		"github.com/aretw0/manipd/internal/config"
		"github.com/aretw0/manipd/internal/server"
	)

	func main() {
		cfg, err := config.Load("manipd.yaml")
		if err != nil {
			log.Fatal(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := server.Run(ctx, cfg); err != nil {
			log.Fatal(err)
		}
	}

Model packages follow the layout documented in package yamlmodel.
*/
package manipd
