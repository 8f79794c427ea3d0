package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics содержит метрики обработки продаж.
type POSMetrics struct {
	// Счётчики операций
	salesStarted   prometheus.Counter
	salesCompleted prometheus.Counter
	salesFailed    prometheus.Counter

	// Счётчики отказов по видам
	productNotFound   prometheus.Counter
	insufficientStock prometheus.Counter

	// Гистограммы
	saleDuration prometheus.Histogram
	saleItems    prometheus.Histogram
}

// NewPOSMetrics создаёт и регистрирует метрики продаж.
func NewPOSMetrics() *POSMetrics {
	return newPOSMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPOSMetricsWithRegisterer(registerer prometheus.Registerer) *POSMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &POSMetrics{
		salesStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_started_total",
			Help: "Total number of sale transactions started",
		}),
		salesCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_completed_total",
			Help: "Total number of sale transactions committed",
		}),
		salesFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_failed_total",
			Help: "Total number of sale transactions rolled back",
		}),
		productNotFound: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_product_not_found_total",
			Help: "Total number of sales rejected due to unknown product",
		}),
		insufficientStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_sales_insufficient_stock_total",
			Help: "Total number of sales rejected due to insufficient stock",
		}),
		saleDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_sale_duration_seconds",
			Help:    "Duration of sale processing in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		saleItems: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_sale_items",
			Help:    "Number of lines per sale request",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

// RecordSaleStarted увеличивает счётчик начатых продаж.
func (m *POSMetrics) RecordSaleStarted() {
	if m == nil {
		return
	}
	m.salesStarted.Inc()
}

// RecordSaleCompleted фиксирует зафиксированную продажу и число позиций.
func (m *POSMetrics) RecordSaleCompleted(items int) {
	if m == nil {
		return
	}
	m.salesCompleted.Inc()
	m.saleItems.Observe(float64(items))
}

// RecordSaleFailed увеличивает счётчик откаченных продаж.
func (m *POSMetrics) RecordSaleFailed() {
	if m == nil {
		return
	}
	m.salesFailed.Inc()
}

// RecordProductNotFound фиксирует отказ из-за неизвестного товара.
func (m *POSMetrics) RecordProductNotFound() {
	if m == nil {
		return
	}
	m.productNotFound.Inc()
}

// RecordInsufficientStock фиксирует отказ из-за нехватки остатка.
func (m *POSMetrics) RecordInsufficientStock() {
	if m == nil {
		return
	}
	m.insufficientStock.Inc()
}

// RecordSaleDuration фиксирует длительность обработки продажи.
func (m *POSMetrics) RecordSaleDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.saleDuration.Observe(d.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
