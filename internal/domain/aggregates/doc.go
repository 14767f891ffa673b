// Package aggregates defines domain-facing aggregate contracts.
//
// These contracts avoid persistence and transport details. Each write method is one
// atomic boundary: the mutation, its Edit and its Change Feed entry commit together or
// not at all.
package aggregates
