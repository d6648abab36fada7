package main

import "github.com/chrisdamba/darkstoremetrics/cmd"

func main() {
	cmd.Execute()
}
