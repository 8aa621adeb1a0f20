package main

import "github.com/webinsight/dashboard/cmd"

func main() {
	cmd.Execute()
}
