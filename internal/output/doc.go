// Package output renders batch reports as text, JSON, or markdown.
package output
