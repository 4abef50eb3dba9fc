// Package commands implements the qsplit command-line interface: grouping
// the measurements of a tape file and checking whether two observables
// commute.
package commands
