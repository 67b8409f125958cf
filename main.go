package main

import "mailmind/internal/cli"

func main() {
	cli.Execute()
}
