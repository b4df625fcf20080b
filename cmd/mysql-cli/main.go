package main

import (
	"os"

	"github.com/malbeclabs/mysql-mcp/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
