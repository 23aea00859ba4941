package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillsCreatedTotal counts bills opened.
	BillsCreatedTotal prometheus.Counter
	// BillsFinishedTotal counts bills transitioned to finished.
	BillsFinishedTotal prometheus.Counter
	// ItemsAddedTotal counts charge lines added across all bills.
	ItemsAddedTotal prometheus.Counter
	// SplitBatchesTotal counts split batches recorded.
	SplitBatchesTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Total number of bills opened.",
		})
		BillsFinishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_finished_total",
			Help:      "Total number of bills marked finished.",
		})
		ItemsAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_items_added_total",
			Help:      "Total number of charge lines added to bills.",
		})
		SplitBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_split_batches_total",
			Help:      "Total number of split batches recorded.",
		})

		mustRegisterCollector(reg, BillsCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BillsCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, BillsFinishedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BillsFinishedTotal = v
			}
		})
		mustRegisterCollector(reg, ItemsAddedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ItemsAddedTotal = v
			}
		})
		mustRegisterCollector(reg, SplitBatchesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SplitBatchesTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("obs: register collector: %w", err))
	}
}
