package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency    = metric.NewHistogram("1m1s")
	EstimateLatency    = metric.NewHistogram("1m1s")
	AdvertsReceived    = metric.NewCounter("10s1s")
	AdvertsForwarded   = metric.NewCounter("10s1s")
	EstimatesPerSecond = metric.NewCounter("10s1s")
	EstimatesWithheld  = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("dvhop:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("dvhop:EstimateLatency (µs)", EstimateLatency)
	expvar.Publish("dvhop:AdvertsReceived/s", AdvertsReceived)
	expvar.Publish("dvhop:AdvertsForwarded/s", AdvertsForwarded)
	expvar.Publish("dvhop:Estimates/s", EstimatesPerSecond)
	expvar.Publish("dvhop:EstimatesWithheld/s", EstimatesWithheld)
}
