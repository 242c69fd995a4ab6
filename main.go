package main

import "mailtrace/cmd"

func main() {
	cmd.Execute()
}
