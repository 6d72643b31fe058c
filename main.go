// main.go
package main

import "stayhub/cmd"

func main() {
	cmd.Execute()
}
