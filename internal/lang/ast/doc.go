// Package ast defines the syntax tree produced by the query parser.
//
// A Block holds independent Queries; each Query is an ordered list of
// Commands:
//   - Fetch: VISIT, loads documents
//   - Graze: SELECT or SCRAPE, filters elements by tag and conditions
//   - Churn: EXTRACT, turns elements into records
//   - Deliver: OUTPUT, writes records to a file
//
// Every node renders back to canonical source through String, and
// parsing that text yields an equal node (positions aside).
package ast
