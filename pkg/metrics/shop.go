package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// ShopMetrics tracks storefront business events.
type ShopMetrics struct {
	ordersPlaced prometheus.Counter
	orderTotal   prometheus.Counter
	cartWrites   *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// NewShopMetrics registers the storefront counters on the provided registerer.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed.",
	})
	orderTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_total_sum",
		Help:      "Sum of committed order totals.",
	})
	cartWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_writes_total",
		Help:      "Cart mutations by kind.",
	}, []string{"kind"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache name and result.",
	}, []string{"cache", "result"})
	reg.MustRegister(ordersPlaced, orderTotal, cartWrites, cacheLookups)
	return &ShopMetrics{
		ordersPlaced: ordersPlaced,
		orderTotal:   orderTotal,
		cartWrites:   cartWrites,
		cacheLookups: cacheLookups,
	}
}

// ObserveOrder counts a committed order and adds its total.
func (s *ShopMetrics) ObserveOrder(total decimal.Decimal) {
	if s == nil || s.ordersPlaced == nil {
		return
	}
	s.ordersPlaced.Inc()
	s.orderTotal.Add(total.InexactFloat64())
}

// IncCartWrite counts a cart mutation ("add", "adjust", "remove").
func (s *ShopMetrics) IncCartWrite(kind string) {
	if s == nil || s.cartWrites == nil {
		return
	}
	s.cartWrites.WithLabelValues(normalizeLabel(kind)).Inc()
}

// CacheHit records a cache hit for the named cache.
func (s *ShopMetrics) CacheHit(cache string) {
	s.cacheLookup(cache, "hit")
}

// CacheMiss records a cache miss for the named cache.
func (s *ShopMetrics) CacheMiss(cache string) {
	s.cacheLookup(cache, "miss")
}

func (s *ShopMetrics) cacheLookup(cache, result string) {
	if s == nil || s.cacheLookups == nil {
		return
	}
	s.cacheLookups.WithLabelValues(normalizeLabel(cache), result).Inc()
}
