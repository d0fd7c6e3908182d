package main

import (
	"github.com/qaeu/melvor-activity-monitor/internal/cli"
)

func main() {
	cli.Execute()
}
