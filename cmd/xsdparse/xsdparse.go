package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CognitoIQ/go-xsd/fetch"
	"github.com/CognitoIQ/go-xsd/internal/commandline"
	"github.com/CognitoIQ/go-xsd/xsd"
)

// Settings that may come from a config file.
type config struct {
	Verbose   int      `mapstructure:"verbose"`
	CacheSize int      `mapstructure:"cache_size"`
	Catalog   []string `mapstructure:"catalog"`
}

func newCommand() *cobra.Command {
	var (
		cfgFile string
		catalog commandline.Catalog
	)
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "xsdparse [flags] file.xsd ...",
		Short:        "Compile XML Schema documents and print their components",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading %s: %w", cfgFile, err)
				}
			}
			var cfg config
			if err := v.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			// entries from the command line come last, so they win
			var entries commandline.Catalog
			for _, e := range cfg.Catalog {
				if err := entries.Set(e); err != nil {
					return err
				}
			}
			entries = append(entries, catalog...)

			logger := log.New(cmd.ErrOrStderr(), "", 0)
			c := xsd.NewCompiler(
				xsd.LogOutput(logger),
				xsd.LogLevel(cfg.Verbose),
				xsd.WithResolver(fetch.New(
					fetch.Catalog(entries.Map()),
					fetch.CacheSize(cfg.CacheSize),
				)),
			)
			for _, file := range args {
				s, err := c.Compile(file)
				if err != nil {
					return err
				}
				printSchema(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (YAML, TOML or JSON)")
	flags.Var(&catalog, "catalog", "use `namespace=location` for imports of namespace")
	flags.IntP("verbose", "v", 0, "log level; 1 reports progress, 4 and above debug output")
	flags.Int("cache-size", fetch.DefaultCacheSize, "number of documents to keep in memory")
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("cache_size", flags.Lookup("cache-size"))
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
