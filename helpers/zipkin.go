package helpers

import (
	"net/http"

	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/middleware/http"
	"github.com/openzipkin/zipkin-go/reporter"
	httpreporter "github.com/openzipkin/zipkin-go/reporter/http"
	"go.uber.org/zap"
)

// InitTracer creates the traced HTTP client, the server middleware
// and a function flushing the span reporter. Without an address
// spans are discarded.
func InitTracer(address, port string, logger *zap.Logger) (*zipkinhttp.Client, func(http.Handler) http.Handler, func()) {
	// set up a span reporter
	var rep reporter.Reporter
	if address == "" {
		rep = reporter.NewNoopReporter()
	} else {
		rep = httpreporter.NewReporter("http://" + address + "/api/v2/spans")
	}

	// create our local service endpoint
	endpoint, err := zipkin.NewEndpoint("gravitaliaForum", "localhost:"+port)
	if err != nil {
		logger.Warn("unable to create local endpoint", zap.Error(err))
	}

	// initialize our tracer
	tracer, err := zipkin.NewTracer(rep, zipkin.WithLocalEndpoint(endpoint))
	if err != nil {
		logger.Fatal("unable to create tracer", zap.Error(err))
	}

	// create global zipkin http server middleware
	serverMiddleware := zipkinhttp.NewServerMiddleware(
		tracer, zipkinhttp.TagResponseSize(true),
	)

	// create global zipkin traced http client
	client, err := zipkinhttp.NewClient(tracer, zipkinhttp.ClientTrace(true))
	if err != nil {
		logger.Fatal("unable to create client", zap.Error(err))
	}

	return client, serverMiddleware, func() { _ = rep.Close() }
}
