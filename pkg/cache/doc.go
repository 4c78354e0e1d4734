// Package cache provides the request cache used by coordinators.
//
// A RequestKey is the tuple (kind, filter-or-category, page, limit, keyword)
// with a fixed, documented serialization, so equal tuples always produce the
// same cache key:
//
//	key := cache.RequestKey{Kind: cache.KindCategories, FilterOrCategory: "Muscles", Page: 1, Limit: 12}
//	key.String() // your-energy:filters:Muscles:page=1:limit=12:keyword=
//
// Two Store implementations exist:
//
//   - MemoryStore: process lifetime, copy-in/copy-out.
//   - RedisStore: entries under a per-session namespace
//     (your-energy:session:<uuid>:...), written without expiry and removed
//     by Clear when the session ends.
//
// Neither store evicts. An entry lives as long as the session that wrote it,
// so a new session always starts from an empty cache.
//
// # Metrics
//
//   - your_energy_cache_hits_total{layer}
//   - your_energy_cache_misses_total{layer}
//   - your_energy_cache_entries{layer}
//   - your_energy_cache_errors_total{operation}: get, set, delete, clear
package cache
