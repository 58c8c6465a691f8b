// Package parser extracts fixtures and navigation links from rendered
// zerozero.pt markup. All functions are pure: they take markup and return
// values, with no network access.
package parser
