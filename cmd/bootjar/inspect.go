// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/hashicorp/go-bootjar"
	"github.com/hashicorp/go-bootjar/archive"
)

func newInspectCmd() *cobra.Command {
	var entries bool

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Show the manifest and class path roots of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := archive.OpenZipFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			logger.Debug("archive opened", zap.String("path", args[0]), zap.Int("files", a.Len()))
			return inspect(cmd.OutOrStdout(), a, entries)
		},
	}
	cmd.Flags().BoolVar(&entries, "entries", false, "also list every file with its BLAKE3 digest")
	return cmd
}

func inspect(w io.Writer, a *archive.Archive, entries bool) error {
	var m *bootjar.Manifest
	if asset, ok := a.Get(archive.ManifestPath); ok {
		content, err := archive.ReadString(asset)
		if err != nil {
			return err
		}
		m, err = bootjar.ParseManifest(strings.NewReader(content))
		if err != nil {
			return fmt.Errorf("invalid manifest: %w", err)
		}
	}

	fmt.Fprintf(w, "Archive: %s\n", a.Name())
	if m == nil {
		fmt.Fprintln(w, "Manifest: none")
	} else {
		fmt.Fprintln(w, "Manifest:")
		for _, attr := range m.Attributes() {
			fmt.Fprintf(w, "  %s: %s\n", attr.Name, attr.Value)
		}
	}

	roots := bootjar.ClasspathRootsFor(m)
	fmt.Fprintf(w, "Classes: %s\n", roots.Classes)
	fmt.Fprintf(w, "Libraries: %s\n", roots.Lib)

	var nested []string
	for _, p := range a.Paths() {
		name := strings.TrimPrefix(p, "/")
		if roots.IsNestedArchive(name, false) {
			nested = append(nested, name)
		}
	}
	fmt.Fprintf(w, "Nested archives: %d\n", len(nested))
	for _, name := range nested {
		fmt.Fprintf(w, "  %s\n", name)
	}

	if !entries {
		return nil
	}
	fmt.Fprintln(w, "Entries:")
	for _, p := range a.Paths() {
		asset, _ := a.Get(p)
		content, err := archive.ReadAll(asset)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		sum := blake3.Sum256(content)
		fmt.Fprintf(w, "  %s  %s\n", hex.EncodeToString(sum[:]), strings.TrimPrefix(p, "/"))
	}
	return nil
}
