package main

import "github.com/polycopy/copytrader/cmd"

func main() {
	cmd.Execute()
}
