package main

import "stripdrop/cmd"

func main() {
	cmd.Execute()
}
