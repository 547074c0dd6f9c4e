package main

import "github.com/oshokin/sdk-provisioner/cmd/sdk-provisioner/cmd"

func main() {
	cmd.Execute()
}
