// Package html extracts the visible text of HTML documents. Scripts, styles
// and the document head are dropped and entities are decoded by the parser.
package html
