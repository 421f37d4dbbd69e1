package main

import "mspro-labs/crop-weather/cmd"

func main() {
	cmd.Execute()
}
