package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"quill/driver"
)

type Context struct{}

type ApplyCmd struct {
	Verbose int      `short:"v" type:"counter"`
	Facts   bool     `help:"Also dump the facts recorded for every node."`
	Paths   []string `arg:"" name:"path" type:"path"`
}

func (cmd *ApplyCmd) Run(ctx *Context) error {
	commonlog.Configure(cmd.Verbose, nil)

	options := driver.Options{Facts: cmd.Facts}

	for _, path := range cmd.Paths {
		if err := driver.RunFile(path, options, os.Stdout); err != nil {
			return err
		}
	}

	return nil
}

var cli struct {
	Apply ApplyCmd `cmd:""`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{})
	ctx.FatalIfErrorf(err)
}
