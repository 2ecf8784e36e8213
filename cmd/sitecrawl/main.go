// Package main provides the entry point for the sitecrawl CLI.
//
// sitecrawl crawls every page of a single domain breadth first and writes
// one line per page listing the same-domain links found on it.
package main

func main() {
	Execute()
}
