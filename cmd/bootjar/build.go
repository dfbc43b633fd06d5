// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hashicorp/go-bootjar"
	"github.com/hashicorp/go-bootjar/archive"
)

func newBuildCmd() *cobra.Command {
	var (
		recipePath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an executable archive from a recipe",
		Example: `  bootjar build -f bootjar.yaml -o build/app.jar
  bootjar build -f web.yaml -o build/app.war -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRecipe(recipePath)
			if err != nil {
				return err
			}
			c, err := buildContainer(r, output)
			if err != nil {
				return err
			}
			if err := c.ExportFile(output); err != nil {
				return err
			}
			sum, err := c.Checksum()
			if err != nil {
				return err
			}
			logger.Info("archive built",
				zap.String("path", output),
				zap.Stringer("layout", c.Layout()),
				zap.Int("files", c.Archive().Len()),
				zap.String("checksum", sum),
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sum)
			return err
		},
	}
	cmd.Flags().StringVarP(&recipePath, "file", "f", "bootjar.yaml", "recipe describing the archive")
	cmd.Flags().StringVarP(&output, "output", "o", "", "path of the archive to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// buildContainer assembles everything the recipe asks for, without
// exporting it.
func buildContainer(r *recipe, output string) (*bootjar.Container, error) {
	layout, err := recipeLayout(r)
	if err != nil {
		return nil, err
	}

	opts := []bootjar.Option{
		bootjar.WithLayout(layout),
		bootjar.WithLogger(logger),
	}
	if r.ClassPath != "" {
		opts = append(opts, bootjar.WithClassPath(os.DirFS(r.path(r.ClassPath))))
	}
	c := bootjar.New(r.archiveName(output), opts...)

	bootVersion := r.SpringBootVersion
	if bootVersion == "" {
		bootVersion = bootjar.NoVersion
	}
	if err := c.SetSpringBootManifestVersion(r.StartClass, bootVersion); err != nil {
		return nil, err
	}

	if len(r.LauncherLibraries) > 0 {
		libs := make([]*archive.Archive, 0, len(r.LauncherLibraries))
		for _, p := range r.LauncherLibraries {
			lib, err := archive.OpenZipFile(r.path(p))
			if err != nil {
				return nil, fmt.Errorf("failed to read launcher library: %w", err)
			}
			libs = append(libs, lib)
		}
		if err := c.AddLauncherLibraries(libs...); err != nil {
			return nil, err
		}
	}
	if len(r.LauncherPackages) > 0 {
		if err := c.AddLauncherPackages(true, r.LauncherPackages...); err != nil {
			return nil, err
		}
	}

	if len(r.Classes) > 0 {
		if err := c.AddClasses(r.Classes...); err != nil {
			return nil, err
		}
	}
	for _, dir := range r.ClassesDirs {
		if err := c.AddClassesDir(r.path(dir)); err != nil {
			return nil, err
		}
	}
	for _, lib := range r.Libraries {
		if err := c.AddAsLibraryFile(r.path(lib)); err != nil {
			return nil, err
		}
	}

	for _, res := range r.BootInfResources {
		if err := addBootInfResource(c, r, res); err != nil {
			return nil, err
		}
	}
	for _, res := range r.WebResources {
		target := res.Target
		if target == "" {
			return nil, errors.New("web resources must have a target")
		}
		if err := c.AddAsWebResource(archive.File(r.path(res.Source)), target); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func addBootInfResource(c *bootjar.Container, r *recipe, res resource) error {
	if res.URL != "" {
		u, err := url.Parse(res.URL)
		if err != nil {
			return fmt.Errorf("invalid resource URL: %w", err)
		}
		return c.AddBootInfURL(u, res.Target)
	}
	if res.Target == "" {
		return c.AddBootInfFile(r.path(res.Source))
	}
	return c.AddBootInfFileAs(r.path(res.Source), res.Target)
}

// recipeLayout picks the layout named by the recipe, or the one that its
// Spring Boot version uses, falling back to the default layout.
func recipeLayout(r *recipe) (*bootjar.Layout, error) {
	if r.Layout != "" {
		return bootjar.LayoutByName(r.Layout)
	}
	packaging, err := bootjar.ParsePackaging(r.Packaging)
	if err != nil {
		return nil, err
	}
	if r.SpringBootVersion != "" {
		return bootjar.LayoutFor(r.SpringBootVersion, packaging)
	}
	if packaging == bootjar.PackagingWar {
		return bootjar.SpringBoot15War, nil
	}
	return bootjar.DefaultLayout, nil
}
