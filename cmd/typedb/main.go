package main

import "github.com/mvp-joe/typedb/internal/cli"

func main() {
	cli.Execute()
}
