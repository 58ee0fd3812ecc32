// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/pgredact/pgredact/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
