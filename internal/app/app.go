package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/ordertrack/internal/cache"
	"github.com/Additional-Code/ordertrack/internal/catalog"
	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/logger"
	"github.com/Additional-Code/ordertrack/internal/messaging"
	"github.com/Additional-Code/ordertrack/internal/observability"
	"github.com/Additional-Code/ordertrack/internal/presentation/http/view"
	repositoryorder "github.com/Additional-Code/ordertrack/internal/repository/order"
	httpserver "github.com/Additional-Code/ordertrack/internal/server/http"
	serviceorder "github.com/Additional-Code/ordertrack/internal/service/order"
	"github.com/Additional-Code/ordertrack/internal/session"
	transporthttp "github.com/Additional-Code/ordertrack/internal/transport/http"
	"github.com/Additional-Code/ordertrack/internal/worker"
	workerorder "github.com/Additional-Code/ordertrack/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	cache.Module,
	catalog.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP wires the order console on top of the core modules.
var HTTP = fx.Options(
	Core,
	session.Module,
	view.Module,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes the audit event consumer.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (console only).
var Module = HTTP
