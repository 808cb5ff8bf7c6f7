/*
Package fetch retrieves pages for VISIT commands.

A Manager turns each URL of a VISIT into a dom.Document through a chain of
Fetchers assembled by Build:

	Router           http(s) to the web fetcher, file:// and plain paths to FileFetcher
	HTTPFetcher      resty over retryablehttp, per-host rate limits and breakers
	HeadlessFetcher  headless Chrome through rod, for JavaScript-heavy pages
	ScriptRenderer   inline scripts run in a goja sandbox, document.write applied
	CachedFetcher    sqlite page cache with TTL

Every failure surfaces as an *errs.FetchError carrying the VISIT position
and the failing URL.
*/
package fetch
