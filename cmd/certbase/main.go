package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/wolfeidau/certbase/cmd/certbase/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		CA    commands.CACmd    `cmd:"" name:"ca" help:"Manage the root CA"`
		Host  commands.HostCmd  `cmd:"" help:"Manage host certificates"`
		List  commands.ListCmd  `cmd:"" help:"List stored certificates"`
		Purge commands.PurgeCmd `cmd:"" help:"Delete the storage root including the CA"`
		Proxy commands.ProxyCmd `cmd:"" help:"Run an HTTPS intercepting proxy signed by the CA"`

		Config      string `help:"Path to the configuration file." default:"~/.certbase/config.yaml" env:"CERTBASE_CONFIG"`
		Root        string `help:"Storage root, overrides the configuration file." env:"CERTBASE_ROOT"`
		Issuer      string `help:"Certificate issuer (native, openssl)." env:"CERTBASE_ISSUER"`
		OpenSSLPath string `name:"openssl-path" help:"Path to the openssl binary." env:"CERTBASE_OPENSSL_PATH"`
		ReusePolicy string `help:"Reuse policy for stored host certificates (always, verify)." env:"CERTBASE_REUSE_POLICY"`
		Debug       bool   `help:"Enable debug mode." env:"CERTBASE_DEBUG"`
		Version     kong.VersionFlag
	}
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("certbase"),
		kong.Description("Local certificate authority manager."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:       cli.Debug,
		Version:     version,
		Config:      cli.Config,
		Root:        cli.Root,
		Issuer:      cli.Issuer,
		OpenSSLPath: cli.OpenSSLPath,
		ReusePolicy: cli.ReusePolicy,
		Stdout:      os.Stdout,
	})
	cmd.FatalIfErrorf(err)
}
