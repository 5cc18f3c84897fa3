// The main package for the linkedin-crawler executable.
package main

import (
	"github.com/jobsweep/linkedin-crawler/cmd"
)

func main() {
	cmd.Execute()
}
