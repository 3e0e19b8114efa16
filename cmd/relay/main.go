package main

import "github.com/ogulcanaydogan/budget-alert-relay/internal/cli"

func main() {
	cli.Execute()
}
