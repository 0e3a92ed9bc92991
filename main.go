// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	_ "time/tzdata"

	"github.com/danielhkuo/ku-polls/cli"
)

func main() {
	cli.Execute()
}
