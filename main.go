package main

import "github.com/KaramelBytes/aqeda/cmd"

func main() {
	cmd.Execute()
}
