package memcached

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	methodNameLabel   = "method_name"
	isSuccessfulLabel = "is_successful"
	serverLabel       = "server"
)

var (
	methodDurationSeconds = func() *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "",
			Name:      "gomemcached_text_method_duration_seconds",
			Help:      "counts the execution time of successful and failed gomemcached methods",
			Buckets: []float64{
				0.0005, 0.001, 0.005, 0.007, 0.015, 0.05, 0.1, 0.2, 0.5, 1,
			},
		}, []string{
			methodNameLabel,
			isSuccessfulLabel,
		})
	}()

	shardUp = func() *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gomemcached_text_shard_up",
			Help: "1 if the memcached server is used for routing, 0 if it is marked down",
		}, []string{
			serverLabel,
		})
	}()
)

// Collectors returns the library metrics for registration in a prometheus.Registerer.
//
//	gomemcached_text_method_duration_seconds
//	gomemcached_text_shard_up
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{methodDurationSeconds, shardUp}
}

// observeMethodDurationSeconds is observing the duration of a method.
func observeMethodDurationSeconds(methodName string, duration float64, isSuccessful bool) {
	flag := "0"
	if isSuccessful {
		flag = "1"
	}

	methodDurationSeconds.
		WithLabelValues(methodName, flag).
		Observe(duration)
}

func setShardUp(server string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	shardUp.WithLabelValues(server).Set(v)
}
