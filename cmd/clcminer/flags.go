// CLI flags, in the teacher's gopkg.in/urfave/cli.v1 idiom
// (cmd/berith/config.go's configFileFlag).
package main

import cli "gopkg.in/urfave/cli.v1"

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "path to clcminer.toml",
	Value: "clcminer.toml",
}
