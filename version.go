package main

import "fmt"

var version = "dev"

func versionCommand() {
	fmt.Printf("sitesnap %s\n", version)
}
