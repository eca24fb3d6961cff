package cmd

import (
	"fmt"
)

const banner = `
   _____ _       _     _
  / ____| |     | |   | |
 | |    | |_   _| |__ | |__   ___  _   _ ___  ___
 | |    | | | | | '_ \| '_ \ / _ \| | | / __|/ _ \
 | |____| | |_| | |_) | | | | (_) | |_| \__ \  __/
  \_____|_|\__,_|_.__/|_| |_|\___/ \__,_|___/\___|

`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Club Management Service - Version %s\x1b[0m\n\n", Version)
}
