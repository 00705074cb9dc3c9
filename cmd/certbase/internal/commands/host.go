package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
)

type HostCmd struct {
	Get     HostGetCmd     `cmd:"" help:"Get or issue the certificate of a host"`
	Rm      HostRmCmd      `cmd:"" help:"Remove the certificate of a host"`
	Inspect HostInspectCmd `cmd:"" help:"Describe the stored certificate of a host"`
}

type HostGetCmd struct {
	Host   string `arg:"" help:"Hostname, optionally with a port"`
	OutDir string `help:"Write HOST.crt and HOST.key to this directory instead of printing" type:"path"`
}

func (h *HostGetCmd) Run(ctx context.Context, globals *Globals) error {
	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	pair, err := cb.GetCertByHost(ctx, h.Host)
	if err != nil {
		return fmt.Errorf("failed to get certificate for %s: %w", h.Host, err)
	}

	if h.OutDir == "" {
		_, err = globals.out().Write(pair.Cert)
		return err
	}

	info, err := cb.Inspect(ctx, h.Host)
	if err != nil {
		return err
	}

	// Filenames use the normalized identity so wildcard hosts stay portable.
	base := strings.ReplaceAll(info.Identity, "*", "_")

	if err := os.MkdirAll(h.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	certPath := filepath.Join(h.OutDir, base+".crt")
	keyPath := filepath.Join(h.OutDir, base+".key")

	if err := os.WriteFile(certPath, pair.Cert, 0o600); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, pair.Key, 0o600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	fmt.Fprintf(globals.out(), "Certificate: %s\n", certPath)
	fmt.Fprintf(globals.out(), "Key:         %s\n", keyPath)

	return nil
}

type HostRmCmd struct {
	Host string `arg:"" help:"Hostname to remove"`
}

func (h *HostRmCmd) Run(ctx context.Context, globals *Globals) error {
	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := cb.RemoveCert(ctx, h.Host)
	if err != nil {
		return err
	}

	if removed {
		fmt.Fprintf(globals.out(), "Removed %s\n", h.Host)
	} else {
		fmt.Fprintf(globals.out(), "No certificate stored for %s\n", h.Host)
	}

	return nil
}

type HostInspectCmd struct {
	Host string `arg:"" help:"Hostname to inspect"`
	JSON bool   `name:"json" help:"Print as JSON"`
}

func (h *HostInspectCmd) Run(ctx context.Context, globals *Globals) error {
	cb, _, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := cb.Inspect(ctx, h.Host)
	if err != nil {
		return err
	}

	if h.JSON {
		enc := json.NewEncoder(globals.out())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	w := tabwriter.NewWriter(globals.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Identity:\t%s\n", info.Identity)
	fmt.Fprintf(w, "Subject:\t%s\n", info.Subject)
	fmt.Fprintf(w, "Issuer:\t%s\n", info.Issuer)
	fmt.Fprintf(w, "Serial:\t%s\n", info.SerialNumber)
	fmt.Fprintf(w, "Fingerprint:\t%s\n", info.Fingerprint)
	fmt.Fprintf(w, "Not Before:\t%s\n", info.NotBefore.Format(time.RFC3339))
	fmt.Fprintf(w, "Not After:\t%s\n", info.NotAfter.Format(time.RFC3339))
	if len(info.DNSNames) > 0 {
		fmt.Fprintf(w, "DNS Names:\t%s\n", strings.Join(info.DNSNames, ", "))
	}
	if len(info.IPAddresses) > 0 {
		fmt.Fprintf(w, "IP Addresses:\t%s\n", strings.Join(info.IPAddresses, ", "))
	}
	fmt.Fprintf(w, "Expired:\t%t\n", info.Expired(time.Now()))
	fmt.Fprintf(w, "Certificate:\t%s\n", info.PathCert)

	return w.Flush()
}
