package main

import (
	"voxshare/cmd"
)

func main() {
	cmd.Execute()
}
