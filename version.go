package scc

// Version is the current version of the go-scc library
const Version = "0.3.0"
