package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/statesmith/statesmith/nitro"
)

var (
	nitroProfile  string
	nitroEndpoint string
	nitroUsername string
	nitroPassword string
	nitroTimeout  time.Duration

	nitroSetArgs    []string
	nitroDeleteArgs []string
)

var nitroCmd = &cobra.Command{
	Use:   "nitro",
	Short: "Drive the appliance's NITRO configuration API",
	Long: `nitro exposes generic CRUD over every object type in the built-in
table; run "statesmith nitro objects" to see the types and the attributes
each accepts.`,
}

var nitroAddCmd = &cobra.Command{
	Use:   "add TYPE",
	Short: "Create an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}

		attrs, err := parseSetArgs(nitroSetArgs)
		if err != nil {
			return err
		}

		if err := client.Add(cmd.Context(), args[0], attrs); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "created")
		return nil
	},
}

var nitroUpdateCmd = &cobra.Command{
	Use:   "update TYPE",
	Short: "Modify an object; --set must include its key field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}

		attrs, err := parseSetArgs(nitroSetArgs)
		if err != nil {
			return err
		}

		if err := client.Update(cmd.Context(), args[0], attrs); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "updated")
		return nil
	},
}

var nitroGetCmd = &cobra.Command{
	Use:   "get TYPE [NAME]",
	Short: "Fetch one object by key, or all objects of a type",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}

		var resources any
		if len(args) == 2 {
			resources, err = client.Get(cmd.Context(), args[0], args[1])
		} else {
			resources, err = client.GetAll(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(resources, "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var nitroDeleteCmd = &cobra.Command{
	Use:   "delete TYPE NAME",
	Short: "Remove an object; bindings take extra discriminators via --arg",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}

		deleteArgs, err := parseStringArgs(nitroDeleteArgs)
		if err != nil {
			return err
		}

		if err := client.Delete(cmd.Context(), args[0], args[1], deleteArgs); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "deleted")
		return nil
	},
}

var nitroEnableCmd = &cobra.Command{
	Use:   "enable TYPE NAME",
	Short: "Enable an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}
		return client.Enable(cmd.Context(), args[0], args[1])
	},
}

var nitroDisableCmd = &cobra.Command{
	Use:   "disable TYPE NAME",
	Short: "Disable an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}
		return client.Disable(cmd.Context(), args[0], args[1])
	},
}

var nitroSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the appliance's running configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNitroClient()
		if err != nil {
			return err
		}
		return client.Save(cmd.Context())
	},
}

var nitroObjectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List supported object types and their attributes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, objType := range nitro.ObjectTypes() {
			fields, err := nitro.Fields(objType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", objType, strings.Join(fields, ", "))
		}
		return nil
	},
}

func init() {
	pf := nitroCmd.PersistentFlags()
	pf.StringVar(&nitroProfile, "profile", "", "YAML profile with endpoint and credentials")
	pf.StringVar(&nitroEndpoint, "endpoint", "", "appliance base URL, e.g. https://ns1.example.com")
	pf.StringVar(&nitroUsername, "nitro-user", "", "API username")
	pf.StringVar(&nitroPassword, "nitro-pass", "", "API password (or set NITRO_PASSWORD)")
	pf.DurationVar(&nitroTimeout, "timeout", 0, "request timeout")

	for _, c := range []*cobra.Command{nitroAddCmd, nitroUpdateCmd} {
		c.Flags().StringArrayVar(&nitroSetArgs, "set", nil, "object attribute as key=value, repeatable")
	}
	nitroDeleteCmd.Flags().StringArrayVar(&nitroDeleteArgs, "arg", nil, "delete discriminator as key=value, repeatable")

	nitroCmd.AddCommand(
		nitroAddCmd,
		nitroUpdateCmd,
		nitroGetCmd,
		nitroDeleteCmd,
		nitroEnableCmd,
		nitroDisableCmd,
		nitroSaveCmd,
		nitroObjectsCmd,
	)
	rootCmd.AddCommand(nitroCmd)
}

func newNitroClient() (*nitro.Client, error) {
	var cfg nitro.Config

	if nitroProfile != "" {
		loaded, err := nitro.LoadProfile(nitroProfile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if nitroEndpoint != "" {
		cfg.Endpoint = nitroEndpoint
	}
	if nitroUsername != "" {
		cfg.Username = nitroUsername
	}
	if nitroPassword != "" {
		cfg.Password = nitroPassword
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv("NITRO_PASSWORD")
	}
	if nitroTimeout != 0 {
		cfg.Timeout = nitroTimeout
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("an appliance endpoint is required, via --endpoint or --profile")
	}

	return nitro.New(cfg, logger, metrics), nil
}

// parseSetArgs turns repeated key=value flags into an attribute map. Values
// stay strings; the appliance coerces numerics itself.
func parseSetArgs(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("bad attribute %q, want key=value", pair)
		}
		attrs[key] = value
	}
	return attrs, nil
}

func parseStringArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("bad argument %q, want key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}
