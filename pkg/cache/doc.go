// Package cache provides a small generic LRU cache.
//
// The notification panel keeps fetched history pages in an LRU keyed by page
// number so reopening the panel re-displays them without another request:
//
//	pages := cache.MustNew[int, notifications.Page](10)
//	pages.Put(1, page)
//	if p, ok := pages.Get(1); ok {
//		render(p)
//	}
package cache
