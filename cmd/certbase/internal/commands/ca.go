package commands

import (
	"context"
	"fmt"
)

type CACmd struct {
	Create CACreateCmd `cmd:"" help:"Create the root CA"`
	Show   CAShowCmd   `cmd:"" help:"Print the root CA certificate"`
	Exists CAExistsCmd `cmd:"" help:"Report whether the root CA exists"`
}

type CACreateCmd struct {
	CommonName string `help:"Common name of the CA certificate" default:"CertBase"`
}

func (c *CACreateCmd) Run(ctx context.Context, globals *Globals) error {
	cb, log, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := cb.CreateCACert(ctx, c.CommonName); err != nil {
		return fmt.Errorf("failed to create CA: %w", err)
	}

	info, err := cb.InspectCA(ctx)
	if err != nil {
		return err
	}

	log.Info().Str("fingerprint", info.Fingerprint).Msg("CA ready")

	fmt.Fprintf(globals.out(), "Created CA %q\n", info.CommonName)
	fmt.Fprintf(globals.out(), "  Certificate: %s\n", info.PathCert)
	fmt.Fprintf(globals.out(), "  Key:         %s\n", info.PathKey)
	fmt.Fprintf(globals.out(), "  Fingerprint: %s\n", info.Fingerprint)

	return nil
}

type CAShowCmd struct {
	Key bool `help:"Also print the private key"`
}

func (c *CAShowCmd) Run(ctx context.Context, globals *Globals) error {
	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	pair, err := cb.GetCACert(ctx)
	if err != nil {
		return err
	}

	if c.Key {
		if _, err := globals.out().Write(pair.Key); err != nil {
			return err
		}
	}

	_, err = globals.out().Write(pair.Cert)
	return err
}

type CAExistsCmd struct{}

func (c *CAExistsCmd) Run(ctx context.Context, globals *Globals) error {
	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintln(globals.out(), cb.IsCAExist())

	return nil
}
