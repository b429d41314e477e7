package internal

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/form"
	"github.com/bancalia/finconsole/packages/product_console/internal/gateway"
	"github.com/bancalia/finconsole/packages/product_console/internal/list"
)

type Services struct {
	Gateway ProductGateway
	Form    *form.Engine
	List    *list.Engine
}

func InitServices(
	cfg config.Config,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Services, error) {
	gw, err := gateway.NewGateway(cfg, tracer, logger, meter)
	if err != nil {
		return nil, err
	}
	f, err := form.NewEngine(gw, cfg, tracer, logger, meter)
	if err != nil {
		return nil, err
	}
	l, err := list.NewEngine(gw, cfg, tracer, logger, meter)
	if err != nil {
		return nil, err
	}
	return &Services{
		Gateway: gw,
		Form:    f,
		List:    l,
	}, nil
}
