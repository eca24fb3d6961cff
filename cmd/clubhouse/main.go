package main

import "github.com/boulodrome/clubhouse/cmd/clubhouse/cmd"

func main() {
	cmd.Execute()
}
