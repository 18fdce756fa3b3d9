package main

import "comptadoc/cmd"

func main() {
	cmd.Execute()
}
