package main

import "auto-i18n/internal/cli"

func main() {
	cli.Execute()
}
