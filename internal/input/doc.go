// Package input collects reviewable source files from file and
// directory arguments.
package input
