package order

import (
	"go.uber.org/fx"

	repo "github.com/Additional-Code/ordertrack/internal/repository/order"
)

// Module provides the order service to Fx, backed by the REST repository.
var Module = fx.Options(
	fx.Provide(func(r *repo.Repository) Backend { return r }),
	fx.Provide(NewService),
)
