package prometrics

import "github.com/Zhima-Mochi/minishop-payment/internal/observability"

var (
	unitsSoldBuckets = []float64{5, 10, 20, 50, 100}
	cartValueBuckets = []float64{100, 200, 500, 1000, 2000, 5000, 10000}
)

// Instruments registers every instrument the service records and returns them keyed for
// observability.New.
func Instruments(r Registry) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests served.", "method", "route", "status"),
		observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Total number of calls to collaborators.", "peer", "endpoint", "outcome"),
		observability.MItemsSold: r.Counter(string(observability.MItemsSold),
			"Running count of items sold."),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", nil, "use_case"),
		observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
		observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Duration of collaborator calls in seconds.", nil, "peer", "endpoint"),
		observability.MUnitsSold: r.Histogram(string(observability.MUnitsSold),
			"Average unit sale.", unitsSoldBuckets),
		observability.MCartValue: r.Histogram(string(observability.MCartValue),
			"Average value sale.", cartValueBuckets),
	}
	return counters, histograms
}
