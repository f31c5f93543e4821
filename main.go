package main

import "github.com/deploymenttheory/go-hushfs/cmd"

func main() {
	cmd.Execute()
}
