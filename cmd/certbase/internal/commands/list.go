package commands

import (
	"context"
	"errors"
	"fmt"
)

type ListCmd struct{}

func (l *ListCmd) Run(ctx context.Context, globals *Globals) error {
	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := cb.ListCerts(ctx)
	if err != nil {
		return err
	}

	out := globals.out()

	if list.CA == "" {
		fmt.Fprintln(out, "CA: (none)")
	} else {
		fmt.Fprintln(out, "CA: present")
	}

	if len(list.Hosts) == 0 {
		fmt.Fprintln(out, "No host certificates.")
		return nil
	}

	fmt.Fprintf(out, "Host certificates (%d):\n", len(list.Hosts))
	for _, host := range list.Hosts {
		fmt.Fprintf(out, "  %s\n", host)
	}

	return nil
}

type PurgeCmd struct {
	Yes bool `help:"Confirm deletion of every key and certificate"`
}

func (p *PurgeCmd) Run(ctx context.Context, globals *Globals) error {
	if !p.Yes {
		return errors.New("refusing to purge without --yes")
	}

	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cb.RemoveAllCerts(ctx); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Removed %s\n", cb.Root())

	return nil
}
