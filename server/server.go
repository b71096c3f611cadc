package server

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/royalcat/communityaddr/addresser"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	MaxBodySize    = 32 * 1000 * 1000 // 32MB
	MaxBatchPoints = 10_000
)

var meter = otel.Meter("github.com/royalcat/communityaddr/server")

func Run(ctx context.Context, address string, assembler *addresser.Assembler) error {
	log := slog.Default()

	s, err := newServer(assembler)
	if err != nil {
		return err
	}

	server := &fasthttp.Server{
		ReadTimeout:        5 * time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            s.router().Handler,
	}

	go func() {
		log.Info("Server listening", "address", address)
		if err := server.ListenAndServe(address); err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

type server struct {
	assembler *addresser.Assembler
	log       *slog.Logger

	metricHttpAddressCallCount metric.Int64Counter
	metricHttpBatchCallCount   metric.Int64Counter
	metricHttpErrors           metric.Int64Counter
}

func newServer(assembler *addresser.Assembler) (*server, error) {
	metricHttpAddressCallCount, err := meter.Int64Counter("http_address_call_total")
	if err != nil {
		return nil, err
	}
	metricHttpBatchCallCount, err := meter.Int64Counter("http_address_batch_call_total")
	if err != nil {
		return nil, err
	}
	metricHttpErrors, err := meter.Int64Counter("http_address_errors_total")
	if err != nil {
		return nil, err
	}
	return &server{
		assembler: assembler,
		log:       slog.Default().With("component", "server"),

		metricHttpAddressCallCount: metricHttpAddressCallCount,
		metricHttpBatchCallCount:   metricHttpBatchCallCount,
		metricHttpErrors:           metricHttpErrors,
	}, nil
}

func (s *server) router() *router.Router {
	r := router.New()
	r.GET("/address/{lat}/{lon}", s.AddressHandler)
	r.POST("/address/batch", s.AddressBatchHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	return r
}

var reqPointsPool = sync.Pool{
	New: func() any {
		return &[][2]float64{}
	},
}

func (s *server) AddressHandler(ctx *fasthttp.RequestCtx) {
	s.metricHttpAddressCallCount.Add(ctx, 1)

	latS := ctx.UserValue("lat").(string)
	lonS := ctx.UserValue("lon").(string)

	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		s.badRequest(ctx, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil {
		s.badRequest(ctx, "invalid longitude")
		return
	}
	regionCode := string(ctx.QueryArgs().Peek("region"))

	addr, err := s.assembler.Assign(ctx, orb.Point{lon, lat}, regionCode)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	out, err := addr.MarshalJSON()
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

// AddressBatchHandler assigns addresses to a JSON list of [lon, lat] pairs.
// The response keeps the request order.
func (s *server) AddressBatchHandler(ctx *fasthttp.RequestCtx) {
	s.metricHttpBatchCallCount.Add(ctx, 1)

	req := reqPointsPool.Get().(*[][2]float64)
	*req = (*req)[:0]
	defer reqPointsPool.Put(req)

	err := unmarshalPointsListFast(ctx.Request.Body(), req)
	if err != nil {
		s.badRequest(ctx, "failed to parse request: "+err.Error())
		return
	}
	if len(*req) > MaxBatchPoints {
		s.metricHttpErrors.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", http.StatusRequestEntityTooLarge)))
		ctx.Response.SetStatusCode(http.StatusRequestEntityTooLarge)
		ctx.Response.SetBodyString(fmt.Sprintf("too many points, max %d", MaxBatchPoints))
		return
	}

	points := make([]orb.Point, len(*req))
	for i, p := range *req {
		points[i] = orb.Point{p[0], p[1]}
	}

	res, err := s.assembler.AssignBatch(ctx, points, string(ctx.QueryArgs().Peek("region")))
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	data, err := res.MarshalJSON()
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(data)
}

func (s *server) badRequest(ctx *fasthttp.RequestCtx, msg string) {
	s.metricHttpErrors.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", http.StatusBadRequest)))
	ctx.Response.SetStatusCode(http.StatusBadRequest)
	ctx.Response.SetBodyString(msg)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, addresser.ErrInvalidCoordinate), errors.Is(err, addresser.ErrUnknownRegion):
		return http.StatusBadRequest
	case errors.Is(err, addresser.ErrBackendUnavailable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(ctx *fasthttp.RequestCtx, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("address assignment failed", "path", string(ctx.Path()), "status", status, "error", err)
	}
	s.metricHttpErrors.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyString(err.Error())
}
