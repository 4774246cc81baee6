package main

import "github/hwsign/device/cmd"

func main() {
	cmd.Execute()
}
