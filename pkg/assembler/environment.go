package assembler

import (
	"context"
	"fmt"

	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
)

// LoadEnvironmentModel loads a standalone environment and flattens it into
// p: each collision object becomes a permanent obstacle named
// req.Prefix + name with its world placement baked in, and each triangle
// list becomes auxiliary geometry under the same naming.
//
// The load is not transactional. When an injection fails, obstacles added
// before the failure stay in p.
func (a *Assembler) LoadEnvironmentModel(ctx context.Context, p *problem.Problem, req ports.EnvironmentRequest) error {
	env, err := a.loader.LoadEnvironment(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEnvironmentLoad, err)
	}

	objects := env.CollisionObjects()
	for _, o := range objects {
		err := p.AddObstacle(&problem.Obstacle{
			Name:      req.Prefix + o.Name,
			Geometry:  o.Geometry,
			Placement: o.World,
			Collision: true,
			Distance:  true,
			Permanent: true,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEnvironmentLoad, err)
		}
	}

	triangles := env.Triangles()
	for _, t := range triangles {
		if err := p.AddAuxiliary(req.Prefix+t.Name, t.World()); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEnvironmentLoad, err)
		}
	}

	a.logger.Debug("Environment merged",
		"package", req.Package,
		"model", req.Model,
		"prefix", req.Prefix,
		"obstacles", len(objects),
		"auxiliary", len(triangles),
	)
	return nil
}
