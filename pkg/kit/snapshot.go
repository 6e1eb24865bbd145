package kit

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// LogSnapshot writes one log line per series gathered from g. Histograms
// are reduced to their sample count and sum.
func LogSnapshot(log *zap.Logger, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{
				zap.String("metric", mf.GetName()),
				zap.String("labels", labelString(m.GetLabel())),
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				fields = append(fields, zap.Float64("value", m.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				fields = append(fields,
					zap.Uint64("count", m.GetHistogram().GetSampleCount()),
					zap.Float64("sum", m.GetHistogram().GetSampleSum()),
				)
			default:
				continue
			}

			log.Info("metric", fields...)
		}
	}
	return nil
}

func labelString(pairs []*dto.LabelPair) string {
	var b strings.Builder
	for i, lp := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(lp.GetName())
		b.WriteByte('=')
		b.WriteString(lp.GetValue())
	}
	return b.String()
}
