package main

import "github.com/abhinvv1/WebDriverAgent/cmd"

func main() {
	cmd.Execute()
}
