package tracing

import (
	"fmt"
	"io"
	"io/ioutil"
	"kycflow/common"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

// logrusLogger adapts logrus to the jaeger reporter logger
type logrusLogger struct{}

func (logrusLogger) Error(msg string) {
	logrus.WithField("component", "jaeger").Error(msg)
}

func (logrusLogger) Infof(msg string, args ...interface{}) {
	logrus.WithField("component", "jaeger").Debugf(msg, args...)
}

// Enabled reports whether a collector or agent is configured through the standard JAEGER_* variables
func Enabled() bool {
	return os.Getenv("JAEGER_ENDPOINT") != "" || os.Getenv("JAEGER_AGENT_HOST") != ""
}

// SetupGlobalTracer installs a jaeger tracer configured from the JAEGER_* environment.
// Without any configured agent the noop tracer stays in place.
// The returned closer flushes buffered spans.
func SetupGlobalTracer() (io.Closer, error) {
	if !Enabled() {
		return ioutil.NopCloser(nil), nil
	}

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("parse jaeger config: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = "const"
		cfg.Sampler.Param = 1
	}
	cfg.Tags = append(cfg.Tags, opentracing.Tag{Key: "instance", Value: common.GetServiceInstance()})

	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(logrusLogger{}), jaegercfg.Metrics(metrics.NullFactory))
	if err != nil {
		return nil, fmt.Errorf("create jaeger tracer: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)
	logrus.Infof("jaeger tracer started for service %s", cfg.ServiceName)
	return closer, nil
}
