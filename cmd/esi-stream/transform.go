package main

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/clems4ever/esi-stream/esi"
	"github.com/spf13/cobra"
)

var transformBaseURL string

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Apply ESI substitution to stdin, writing the result to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		base, err := url.Parse(transformBaseURL)
		if err != nil {
			return fmt.Errorf("parse --base-url: %w", err)
		}

		stream, err := esi.NewStream(cmd.Context(), base, cfg.header(), esi.Options{
			EsiPrefix: cfg.EsiPrefix,
			Fetcher:   timeoutFetcher(cfg.timeout()),
		})
		if err != nil {
			return err
		}

		go func() {
			_, _ = io.Copy(stream, os.Stdin)
			_ = stream.Close()
		}()

		_, err = io.Copy(os.Stdout, stream.Reader())
		return err
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().StringVar(&transformBaseURL, "base-url", "http://localhost/", "base URL esi:include src/alt are resolved against")
}
