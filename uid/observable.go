package uid

import (
	"context"
	"time"

	"github.com/corbocal/idx/log"
	"github.com/corbocal/idx/log/logger"
	"github.com/corbocal/idx/ref"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableOptions struct {
	// Name 指标名前缀，同时作为日志和追踪的 component
	Name string `yaml:"name"`

	// Logger 为空且开启日志时使用 log.Default()
	Logger *ref.TypeOptions `yaml:"logger"`

	EnableMetrics bool `yaml:"enableMetrics"`
	EnableLogging bool `yaml:"enableLogging"`
	EnableTracing bool `yaml:"enableTracing"`

	// Registerer 为空时注册到 prometheus 默认 registry
	Registerer prometheus.Registerer `yaml:"-"`
}

const defaultObservableName = "uid"

// ObservableMetrics 同名的指标在所有变体之间共享，以 variant 标签区分
type ObservableMetrics struct {
	generateCounter  *prometheus.CounterVec
	generateDuration *prometheus.HistogramVec
}

func NewObservableMetrics(name string, registerer prometheus.Registerer) (*ObservableMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name + "_generate_total",
			Help: "Total number of identifier generations",
		},
		[]string{"variant", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name + "_generate_duration_seconds",
			Help:    "Duration of identifier generation in seconds",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		[]string{"variant"},
	)

	if err := registerer.Register(counter); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "register counter failed")
		}
		if counter, ok = are.ExistingCollector.(*prometheus.CounterVec); !ok {
			return nil, errors.Errorf("collector %s_generate_total registered with a different type", name)
		}
	}
	if err := registerer.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "register histogram failed")
		}
		if duration, ok = are.ExistingCollector.(*prometheus.HistogramVec); !ok {
			return nil, errors.Errorf("collector %s_generate_duration_seconds registered with a different type", name)
		}
	}

	return &ObservableMetrics{
		generateCounter:  counter,
		generateDuration: duration,
	}, nil
}

// ObservableGenerator 装饰器，为生成器添加指标、日志和追踪
type ObservableGenerator struct {
	generator Generator
	variant   Variant

	logger  logger.Logger
	metrics *ObservableMetrics
	tracer  trace.Tracer
	name    string
}

func NewObservableGenerator(g Generator, v Variant, options *ObservableOptions) (*ObservableGenerator, error) {
	if g == nil {
		return nil, errors.New("generator is nil")
	}
	if options == nil {
		return nil, errors.New("options is nil")
	}

	name := options.Name
	if name == "" {
		name = defaultObservableName
	}

	obs := &ObservableGenerator{
		generator: g,
		variant:   v,
		name:      name,
	}

	if options.EnableLogging {
		l, err := log.NewLoggerWithOptions(options.Logger)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create logger")
		}
		obs.logger = l.WithGroup("observableGenerator")
	}

	if options.EnableMetrics {
		metrics, err := NewObservableMetrics(name, options.Registerer)
		if err != nil {
			return nil, err
		}
		obs.metrics = metrics
	}

	if options.EnableTracing {
		obs.tracer = otel.Tracer("uid." + name)
	}

	return obs, nil
}

func (obs *ObservableGenerator) Generate() (string, error) {
	return obs.GenerateContext(context.Background())
}

func (obs *ObservableGenerator) GenerateContext(ctx context.Context) (string, error) {
	start := time.Now()
	variant := obs.variant.String()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, "uid.generate",
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("variant", variant),
			),
		)
		defer span.End()
	}

	var raw string
	var err error
	if cg, ok := obs.generator.(ContextGenerator); ok {
		raw, err = cg.GenerateContext(ctx)
	} else {
		raw, err = obs.generator.Generate()
	}
	duration := time.Since(start)

	if span != nil {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.generateCounter.WithLabelValues(variant, status).Inc()
		obs.metrics.generateDuration.WithLabelValues(variant).Observe(duration.Seconds())
	}

	if obs.logger != nil && err != nil {
		obs.logger.ErrorContext(ctx, "generate failed",
			"component", obs.name,
			"variant", variant,
			"duration_us", duration.Microseconds(),
			"error", err.Error(),
		)
	}

	return raw, err
}
