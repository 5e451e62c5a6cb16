// Package rules holds the bot's reply rules: an ordered, immutable table of
// triggers paired with candidate responses, and the selector that picks one
// response when a rule fires. Tables are built once at startup and are safe
// for concurrent reads.
package rules
