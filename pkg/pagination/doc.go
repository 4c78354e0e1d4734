// Package pagination derives page controls from a listing's totalPages.
//
// Listings with a single page (or none) get no controls at all. Up to five
// pages every page is shown; beyond that the first three and the last two
// pages are shown with a gap between them:
//
//	1 2 3 … 9 10
//
// Example usage:
//
//	controls := pagination.Build(resp.TotalPages, state.Page)
//	if controls == nil {
//		// clear pagination
//	}
package pagination
