package main

import "agencyops/cmd"

func main() {
	cmd.Execute()
}
