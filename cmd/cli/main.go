package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/location/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Token   commands.TokenCmd `cmd:"" help:"Generate a JWT token"`
		JWKS    commands.JWKSCmd  `cmd:"" name:"jwks" help:"Print a JWKS document for a signing key"`
		Debug   bool              `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
