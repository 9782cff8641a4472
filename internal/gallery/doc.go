// Package gallery holds the pure, single-owner state behind the quote wall:
// record normalisation, the selection (filter and sort) state, the greedy
// masonry arrangement and the featured-quote carousel.
//
// Nothing in this package performs I/O or starts goroutines. Shells (the
// HTTP service and the terminal UI) own an instance of each state value and
// feed it events as plain method calls.
package gallery
