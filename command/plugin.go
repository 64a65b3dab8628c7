package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/frantjc/appx"
	"github.com/frantjc/appx/internal/appxxml"
	"github.com/frantjc/appx/windows"
	unixtable "github.com/frantjc/go-encoding-unixtable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ChangeSet is the on-disk description of a plugin's declarative
// manifest changes, as consumed by `appx plugin add` and
// `appx plugin rm`.
type ChangeSet struct {
	Plugin     string        `yaml:"plugin"`
	Changes    []appx.Change `yaml:"changes"`
	EditConfig []appx.Change `yaml:"editConfig,omitempty"`
}

type appliedChange struct {
	Target string `json:"target"`
	Parent string `json:"parent"`
	XML    string `json:"xml" unixtable:"-"`
}

func newPlugin() *cobra.Command {
	var (
		cmd = &cobra.Command{
			Use:           "plugin",
			Version:       appx.SemVer(),
			SilenceErrors: true,
			SilenceUsage:  true,
		}
	)

	cmd.AddCommand(newPluginAdd(), newPluginRm())

	return cmd
}

func newPluginAdd() *cobra.Command {
	return newPluginCommand("add", false)
}

func newPluginRm() *cobra.Command {
	return newPluginCommand("rm", true)
}

func newPluginCommand(use string, remove bool) *cobra.Command {
	var (
		project      string
		pluginID     string
		varFlags     []string
		varsFile     string
		prefixPolicy string
		cmd          = &cobra.Command{
			Use:           use,
			Version:       appx.SemVer(),
			Args:          cobra.ExactArgs(1),
			SilenceErrors: true,
			SilenceUsage:  true,
			RunE: func(cmd *cobra.Command, args []string) error {
				var (
					ctx = cmd.Context()
					log = appx.LoggerFrom(ctx)
				)

				changeSet, err := readChangeSet(args[0])
				if err != nil {
					return err
				}

				if pluginID == "" {
					pluginID = changeSet.Plugin
				}

				if pluginID == "" {
					return fmt.Errorf("no plugin ID in %s and no --plugin given", args[0])
				}

				vars, err := readVars(varsFile, varFlags)
				if err != nil {
					return err
				}

				munger := &windows.Munger{
					Base:         &appxxml.Engine{Dir: project},
					PrefixPolicy: windows.PrefixPolicy(prefixPolicy),
				}

				log.Info("munging manifests", "plugin", pluginID, "project", project, "remove", remove)

				if remove {
					err = munger.RemoveConfigChanges(ctx, changeSet.Changes, pluginID, vars, changeSet.EditConfig)
				} else {
					err = munger.AddConfigChanges(ctx, changeSet.Changes, pluginID, vars, changeSet.EditConfig)
				}
				if err != nil {
					return err
				}

				demuxed, err := windows.DefaultManifestTable.Demux(append(changeSet.Changes, changeSet.EditConfig...))
				if err != nil {
					return err
				}

				applied := make([]appliedChange, len(demuxed))
				for i, change := range demuxed {
					applied[i] = appliedChange{
						Target: change.Target,
						Parent: change.Parent,
						XML:    change.XML,
					}
				}

				return unixtable.NewEncoder(cmd.OutOrStdout()).Encode(applied)
			},
		}
	)

	cmd.Flags().StringVarP(&project, "project", "p", ".", "project directory containing the manifests")
	cmd.Flags().StringVar(&pluginID, "plugin", "", "plugin ID, overriding the change-set file")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "variable substitution in KEY=VALUE form")
	cmd.Flags().StringVar(&varsFile, "vars", "", "YAML file of variable substitutions")
	cmd.Flags().StringVar(&prefixPolicy, "prefix-policy", string(windows.PrefixPolicyWhitelist), `capability prefix policy, "whitelist" or "all"`)

	return cmd
}

func readChangeSet(name string) (*ChangeSet, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	changeSet := &ChangeSet{}
	if err = yaml.NewDecoder(f).Decode(changeSet); err != nil {
		return nil, fmt.Errorf("parse change-set %s: %w", name, err)
	}

	return changeSet, nil
}

func readVars(varsFile string, varFlags []string) (map[string]string, error) {
	vars := map[string]string{}

	if varsFile != "" {
		f, err := os.Open(varsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err = yaml.NewDecoder(f).Decode(&vars); err != nil {
			return nil, fmt.Errorf("parse vars %s: %w", varsFile, err)
		}
	}

	for _, kv := range varFlags {
		k, v, found := strings.Cut(kv, "=")
		if !found {
			return nil, fmt.Errorf("invalid variable %q, expected KEY=VALUE", kv)
		}

		vars[k] = v
	}

	return vars, nil
}
