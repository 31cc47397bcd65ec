package main

import "github.com/LongLingMichael/renjin/cmd"

func main() {
	cmd.Execute()
}
