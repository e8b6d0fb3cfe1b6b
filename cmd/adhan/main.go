// Package main is the entry point for adhan, the prayer-time monitor.
package main

func main() {
	Execute()
}
