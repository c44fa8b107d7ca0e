package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agiangrant/glview"
)

// Init implements the 'glview init' command
func Init(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	name := fs.String("name", "", "App name used for the default storage directory")
	force := fs.Bool("force", false, "Overwrite an existing glview.toml")
	fs.Parse(args)

	if _, err := os.Stat(glview.ConfigFileName); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", glview.ConfigFileName)
	}

	appName := *name
	if appName == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		appName = filepath.Base(cwd)
	}

	config := glview.DefaultConfig()
	config.Storage.Path = glview.DefaultStoragePath(appName)

	if err := glview.SaveConfig(glview.ConfigFileName, config); err != nil {
		return err
	}
	fmt.Printf("  ✓ Created %s\n", glview.ConfigFileName)
	if config.Storage.Path != "" {
		fmt.Printf("  ✓ Storage path: %s\n", config.Storage.Path)
	}

	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Point [library] path at your engine build, or set GLVIEW_LIB_PATH")
	fmt.Println("  2. glview check")
	return nil
}

// loadConfig reads path, or the nearest glview.toml when path is empty.
func loadConfig(path string) (glview.Config, error) {
	if path == "" {
		found, err := glview.FindConfig()
		if err != nil {
			return glview.Config{}, err
		}
		if found == "" {
			return glview.DefaultConfig(), nil
		}
		path = found
	}
	return glview.LoadConfig(path)
}
