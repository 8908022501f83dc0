// Package main is the entry point for redisgate.
package main

import (
	"redisgate/cli/cmd"
)

func main() {
	cmd.Execute()
}
