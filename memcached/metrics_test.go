package memcached

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_observeMethodDurationSeconds(t *testing.T) {
	type args struct {
		methodName   string
		duration     float64
		isSuccessful bool
	}
	tests := []struct {
		name string
		args args
	}{
		{
			name: "60 true",
			args: args{
				methodName:   "Get",
				duration:     60 * time.Millisecond.Seconds(),
				isSuccessful: true,
			},
		},
		{
			name: "15 true",
			args: args{
				methodName:   "Get",
				duration:     15 * time.Millisecond.Seconds(),
				isSuccessful: true,
			},
		},
		{
			name: "39 true",
			args: args{
				methodName:   "Get",
				duration:     39 * time.Millisecond.Seconds(),
				isSuccessful: true,
			},
		},
		{
			name: "100 false",
			args: args{
				methodName:   "Store",
				duration:     100 * time.Millisecond.Seconds(),
				isSuccessful: false,
			},
		},
		{
			name: "66 true",
			args: args{
				methodName:   "Store",
				duration:     66 * time.Millisecond.Seconds(),
				isSuccessful: true,
			},
		},
		{
			name: "11 false",
			args: args{
				methodName:   "Store",
				duration:     11 * time.Millisecond.Seconds(),
				isSuccessful: false,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observeMethodDurationSeconds(tt.args.methodName, tt.args.duration, tt.args.isSuccessful)

			var success = "0"
			if tt.args.isSuccessful {
				success = "1"
			}

			_, err := methodDurationSeconds.GetMetricWith(map[string]string{methodNameLabel: tt.args.methodName, isSuccessfulLabel: success})
			assert.Nil(t, err, "GetMetricWith: returned error is not nil - %v", err)
		})
	}
}

func Test_setShardUp(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, c := range Collectors() {
		require.NoError(t, reg.Register(c))
	}

	setShardUp("10.0.0.1:11211", true)
	setShardUp("10.0.0.2:11211", true)
	setShardUp("10.0.0.2:11211", false)

	families, err := reg.Gather()
	require.NoError(t, err)

	got := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "gomemcached_text_shard_up" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == serverLabel {
					got[l.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, got["10.0.0.1:11211"])
	assert.Equal(t, 0.0, got["10.0.0.2:11211"])
}
