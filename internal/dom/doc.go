// Package dom is the document model queries run against.
//
// A Document is an arena of nodes stored in depth-first pre-order, so a
// node's index is its document position and its subtree is a contiguous
// range. Nodes refer to their parent by index; Node values are small
// handles into the arena.
//
// Built on:
//   - goquery: tolerant HTML5 parsing
//   - chardet and x/net/html/charset: decoding of non UTF-8 input
//   - htmlquery: outer HTML rendering
package dom
