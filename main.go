package main

import (
	cmd "github.com/dbrag/dbrag-server/cmd/dbrag"
)

func main() {
	cmd.Execute()
}
