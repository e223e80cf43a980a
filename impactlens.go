// Package impactlens derives dashboard figures from platform records on the
// client.
//
// Usage:
//
//	import "github.com/spektr-org/impactlens/engine"
//
//	sel, err := engine.Select(record.DonationAdapter.Bind(donations), spec,
//	    engine.WithDefaultMeasure("amount"),
//	    engine.WithCurrency("XAF", "currency", rates),
//	)
//
// The engine filters, sorts, groups and summarizes any record view. The
// record package adapts the platform's collections (products, film projects,
// NGO projects, donations, assets, impact measurements and goals) to views,
// the store package keeps those collections behind an injectable backend,
// and the impact package computes the NGO and production dashboards on top.
// Nothing here calls a remote service unless a store backend is configured
// to.
package impactlens
