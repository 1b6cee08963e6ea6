package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

//Register registers collectors to prometheus default registry.
//A collector with the same descriptors is replaced
func Register(ms ...prometheus.Collector) error {
	for _, m := range ms {
		if err := prometheus.Register(m); err != nil {
			prometheus.Unregister(m)
			if err = prometheus.Register(m); err != nil {
				return errors.Wrap(err, "can't register metric")
			}
		}
	}
	return nil
}
